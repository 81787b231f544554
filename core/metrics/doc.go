// Package metrics exposes reconciliation outcomes as Prometheus
// collectors: run counts and durations, rows compared, discrepancies by
// kind, repair actions by status, and the last observed match percentage
// per table.
package metrics
