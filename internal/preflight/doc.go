// Package preflight provides readiness checks for the external tools and
// filesystem paths that lecturesync depends on.
//
// These checks run in two contexts:
//   - The fix and status commands call RunAll before starting a run, so an
//     unwritable work directory fails fast instead of after a long encode.
//   - The "lecturesync deps" command displays every check plus tool versions.
package preflight
