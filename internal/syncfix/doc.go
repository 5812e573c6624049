// Package syncfix decides whether a presenter/presentation recording pair is
// out of sync and, when it is, drives the correction pipeline that pads the
// shorter stream with a black leader clip.
//
// Evaluate and EvaluatePaths are pure. Pipeline sequences the prober and
// transcoder collaborators through the run states, keeps intermediates in a
// run-scoped directory, verifies the output, and writes the status record
// consumed by the calling workflow engine.
package syncfix
