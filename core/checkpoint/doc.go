// Package checkpoint persists batch progress between runs.
//
// A batched reconciliation over a large table can take a long time; the
// store keeps one JSON file per table recording the last completed
// offset, so --resume can pick up where an interrupted run left off.
// Writes are atomic (temp file plus rename).
package checkpoint
