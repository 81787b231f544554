package metrics

import (
	"testing"
	"time"

	"cdc-reconciler/core/reconcile"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveSummary(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSummary("users", &reconcile.Summary{
		TotalSourceRows: 100,
		MissingCount:    3,
		ExtraCount:      1,
		MismatchCount:   2,
	})
	m.ObserveSummary("users", &reconcile.Summary{
		TotalSourceRows: 50,
		MissingCount:    1,
	})

	assert.Equal(t, 150.0, testutil.ToFloat64(m.RowsCompared.WithLabelValues("users")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.DiscrepanciesTotal.WithLabelValues("users", "missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DiscrepanciesTotal.WithLabelValues("users", "extra")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DiscrepanciesTotal.WithLabelValues("users", "mismatch")))
}

func TestObserveRun(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRun("users", OutcomeCompleted, 2*time.Second, 99.5)
	m.ObserveRun("users", OutcomeFailed, time.Second, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("users", OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("users", OutcomeFailed)))
	// A failed run must not overwrite the last completed match level.
	assert.Equal(t, 99.5, testutil.ToFloat64(m.MatchPercentage.WithLabelValues("users")))
}

func TestObserveAction(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAction("users", reconcile.Action{Type: reconcile.ActionDelete, Status: reconcile.StatusExecuted})
	m.ObserveAction("users", reconcile.Action{Type: reconcile.ActionDelete, Status: reconcile.StatusExecuted})
	m.ObserveAction("users", reconcile.Action{Type: reconcile.ActionInsert, Status: reconcile.StatusFailed})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RepairActionsTotal.WithLabelValues("users", "DELETE", "executed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RepairActionsTotal.WithLabelValues("users", "INSERT", "failed")))
}
