// Package ffmpeg drives the ffmpeg binary for the three correction steps:
// leader synthesis, normalization, and stream-copy concatenation.
//
// All three share one Profile so their outputs carry identical codec,
// resolution, frame rate, and audio parameters. The concat demuxer's stream
// copy mode only produces a playable file when those match.
//
// Process execution goes through an injectable Runner; tests substitute a
// recorder instead of spawning ffmpeg.
package ffmpeg
