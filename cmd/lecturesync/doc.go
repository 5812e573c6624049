// Package main hosts the lecturesync CLI entrypoint and command graph.
//
// The Cobra command tree exposes the two run modes (fix and status) that a
// lecture-capture workflow engine invokes, plus operator tooling for probing
// media, checking dependencies, browsing run history, and scaffolding
// configuration. Configuration and logger construction live in
// commandContext so subcommands only describe what they run.
//
// Exit status is decided here alone: 0 on success, 1 on any error.
package main
