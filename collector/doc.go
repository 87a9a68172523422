// Package collector orchestrates a whole catalog run.
// It verifies connectivity, walks the group hierarchy
// breadth-first to discover projects, locates candidate
// YAML files per project, extracts service entries, and
// folds everything into one catalog.
//
// Independent projects are processed by a bounded
// worker pool; results are re-sequenced by discovery
// order before the catalog builder sees them, so the
// final ordering is stable regardless of parallelism.
// Per-branch and per-file failures are recorded in a
// Report and never abort the run; only a failing
// connectivity check is fatal. Cancelling the context
// abandons remaining work and reports what was
// collected so far.
package collector
