package metrics

import (
	"time"

	"cdc-reconciler/core/reconcile"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes as reported to the runs_total counter.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Metrics holds the Prometheus collectors for reconciliation outcomes.
type Metrics struct {
	RunsTotal            *prometheus.CounterVec
	RunDuration          prometheus.Histogram
	RowsCompared         *prometheus.CounterVec
	DiscrepanciesTotal   *prometheus.CounterVec
	RepairActionsTotal   *prometheus.CounterVec
	MatchPercentage      *prometheus.GaugeVec
	CurrentDiscrepancies *prometheus.GaugeVec
}

// New registers the reconciliation collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciliation_runs_total",
			Help: "Total reconciliation runs by table and outcome.",
		}, []string{"table", "outcome"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reconciliation_run_duration_seconds",
			Help:    "Wall-clock duration of reconciliation runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		RowsCompared: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciliation_rows_compared_total",
			Help: "Total source rows examined, by table.",
		}, []string{"table"}),
		DiscrepanciesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciliation_discrepancies_total",
			Help: "Discrepancies found, by table and kind.",
		}, []string{"table", "kind"}),
		RepairActionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciliation_repair_actions_total",
			Help: "Repair actions generated or executed, by table, action type, and status.",
		}, []string{"table", "action", "status"}),
		MatchPercentage: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "reconciliation_match_percentage",
			Help: "Match percentage of the most recent run, by table.",
		}, []string{"table"}),
		CurrentDiscrepancies: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "reconciliation_current_discrepancies",
			Help: "Discrepancy count of the most recent run, by table and kind.",
		}, []string{"table", "kind"}),
	}
}

// ObserveRun records a finished run's outcome, duration, and match level.
func (m *Metrics) ObserveRun(table, outcome string, duration time.Duration, matchPercentage float64) {
	m.RunsTotal.WithLabelValues(table, outcome).Inc()
	m.RunDuration.Observe(duration.Seconds())
	if outcome == OutcomeCompleted {
		m.MatchPercentage.WithLabelValues(table).Set(matchPercentage)
	}
}

// ObserveSummary records the discrepancy counts of one diff pass.
func (m *Metrics) ObserveSummary(table string, s *reconcile.Summary) {
	m.RowsCompared.WithLabelValues(table).Add(float64(s.TotalSourceRows))
	m.DiscrepanciesTotal.WithLabelValues(table, string(reconcile.KindMissing)).Add(float64(s.MissingCount))
	m.DiscrepanciesTotal.WithLabelValues(table, string(reconcile.KindExtra)).Add(float64(s.ExtraCount))
	m.DiscrepanciesTotal.WithLabelValues(table, string(reconcile.KindMismatch)).Add(float64(s.MismatchCount))
	m.CurrentDiscrepancies.WithLabelValues(table, string(reconcile.KindMissing)).Set(float64(s.MissingCount))
	m.CurrentDiscrepancies.WithLabelValues(table, string(reconcile.KindExtra)).Set(float64(s.ExtraCount))
	m.CurrentDiscrepancies.WithLabelValues(table, string(reconcile.KindMismatch)).Set(float64(s.MismatchCount))
}

// ObserveAction records one repair action in its final status.
func (m *Metrics) ObserveAction(table string, action reconcile.Action) {
	m.RepairActionsTotal.WithLabelValues(table, string(action.Type), string(action.Status)).Inc()
}
