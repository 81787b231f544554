// Package runner orchestrates end-to-end reconciliation runs.
//
// A run fetches rows from a source and a target table, classifies
// discrepancies, optionally generates and executes repair actions, and
// produces a Report. Two modes exist:
//
//   - full: both tables are materialized, every discrepancy carries its
//     row payload, and repairs can be generated and applied.
//   - counts: both tables are walked window by window keeping only
//     running totals. Memory stays bounded by the window size, progress
//     is checkpointed so an interrupted run can resume, and no repairs
//     are produced.
//
// Repair execution is best-effort: each action records its own outcome
// and one failed statement never aborts the run.
package runner
