// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: runs ffprobe through an injectable runner
//
// Primary entry points:
//   - Prober.AudioDuration: duration of the first audio stream
//   - Prober.ContainerDuration: container-level duration
//   - Prober.Inspect: full stream and format listing
//
// Every failure (non-zero exit, malformed JSON, missing or non-numeric
// duration) is tagged with services.ErrProbe. Probing is never retried; a
// corrupt input does not fix itself.
package ffprobe
