// Package services defines shared utilities consumed by the pipeline stages
// and the external tool wrappers.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and input roles for
//     logging.
//   - Structured error markers plus the Wrap helper so every failure carries
//     the stage and operation that produced it and can be classified with
//     errors.Is.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
