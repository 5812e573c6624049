// Package config loads, normalizes, and validates lecturesync configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LECTURESYNC_FFMPEG. The Config type centralizes every knob the CLI and the
// sync pipeline need: tool binaries, the run work directory, the decision
// threshold, and the canonical encoding profile shared by the leader clip and
// the re-encoded stream.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
