// Package history keeps a SQLite journal of sync runs.
//
// Each run records its arguments, probed durations, decision, final state,
// and failure class so operators can audit what a workflow engine asked for
// and what happened. The journal is an audit trail, not a work queue; a
// schema change bumps schemaVersion and users delete the database to adopt it.
package history
