package runner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cdc-reconciler/core/checkpoint"
	"cdc-reconciler/core/metrics"
	"cdc-reconciler/core/reconcile"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySource struct {
	rows []reconcile.Record
}

func (s *memorySource) FetchBatch(_ context.Context, offset, limit int) ([]reconcile.Record, error) {
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[offset:end], nil
}

type fakeExecutor struct {
	executed []string
	failOn   string
}

func (e *fakeExecutor) Execute(_ context.Context, sql string) (int64, error) {
	if e.failOn != "" && strings.Contains(sql, e.failOn) {
		return 0, errors.New("syntax error near WHERE")
	}
	e.executed = append(e.executed, sql)
	return 1, nil
}

func baseConfig() Config {
	return Config{
		Table:     "users",
		Schema:    "public",
		KeyFields: []string{"id"},
		BatchSize: 2,
		Mode:      ModeFull,
		DryRun:    true,
	}
}

func TestRun_FullModePerfectMatch(t *testing.T) {
	rows := []reconcile.Record{
		{"id": int64(1), "v": "a"},
		{"id": int64(2), "v": "b"},
		{"id": int64(3), "v": "c"},
	}
	r := New(baseConfig(), &memorySource{rows: rows}, &memorySource{rows: rows}, Deps{})

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 100.0, report.MatchPercentage)
	assert.Equal(t, RecommendationNone, report.Recommendation)
	assert.Empty(t, report.Actions)
	assert.Equal(t, 3, report.Summary.MatchCount)
}

func TestRun_FullModeGeneratesOrderedActions(t *testing.T) {
	source := []reconcile.Record{
		{"id": int64(1), "v": "a"},
		{"id": int64(2), "v": "b"},
		{"id": int64(3), "v": "c"},
	}
	target := []reconcile.Record{
		{"id": int64(1), "v": "a"},
		{"id": int64(2), "v": "b*"},
		{"id": int64(4), "v": "d"},
	}

	r := New(baseConfig(), &memorySource{rows: source}, &memorySource{rows: target}, Deps{})
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Actions, 3)
	assert.Equal(t, reconcile.ActionDelete, report.Actions[0].Type)
	assert.Equal(t, reconcile.ActionInsert, report.Actions[1].Type)
	assert.Equal(t, reconcile.ActionUpdate, report.Actions[2].Type)

	// Dry run: nothing executes, everything stays pending.
	for _, a := range report.Actions {
		assert.True(t, a.DryRun)
		assert.Equal(t, reconcile.StatusPending, a.Status)
	}
	assert.Equal(t, RecommendationManual, report.Recommendation)
}

func TestRun_FullModeBestEffortExecution(t *testing.T) {
	source := []reconcile.Record{
		{"id": int64(1), "v": "a"},
		{"id": int64(3), "v": "c"},
	}
	target := []reconcile.Record{
		{"id": int64(1), "v": "a"},
		{"id": int64(4), "v": "d"},
	}

	cfg := baseConfig()
	cfg.DryRun = false
	cfg.Execute = true

	executor := &fakeExecutor{failOn: "DELETE"}
	r := New(cfg, &memorySource{rows: source}, &memorySource{rows: target}, Deps{Executor: executor})

	report, err := r.Run(context.Background())
	require.NoError(t, err, "a failed statement must not fail the run")

	require.Len(t, report.Actions, 2)
	assert.Equal(t, reconcile.StatusFailed, report.Actions[0].Status)
	assert.Contains(t, report.Actions[0].Error, "syntax error")
	assert.Equal(t, reconcile.StatusExecuted, report.Actions[1].Status)
	assert.Equal(t, 1, report.ExecutedCount)
	assert.Equal(t, 1, report.FailedCount)
	require.Len(t, executor.executed, 1)
	assert.Contains(t, executor.executed[0], "INSERT INTO")
}

func TestRun_FullModeIndexErrorFailsRun(t *testing.T) {
	source := []reconcile.Record{{"id": int64(1)}, {"no_key": int64(2)}}
	r := New(baseConfig(), &memorySource{rows: source}, &memorySource{}, Deps{})

	_, err := r.Run(context.Background())
	require.Error(t, err)

	var rowErr *reconcile.RowIndexError
	assert.ErrorAs(t, err, &rowErr)
}

func TestRun_CountsModeTotalsAndCheckpointCleared(t *testing.T) {
	source := []reconcile.Record{
		{"id": "0001", "v": "a"},
		{"id": "0002", "v": "b"},
		{"id": "0003", "v": "c"},
		{"id": "0004", "v": "d"},
	}
	target := []reconcile.Record{
		{"id": "0001", "v": "a"},
		{"id": "0002", "v": "b*"},
		{"id": "0003", "v": "c"},
		{"id": "0004", "v": "d"},
	}

	store, err := checkpoint.NewStore(t.TempDir())
	require.NoError(t, err)

	cfg := baseConfig()
	cfg.Mode = ModeCounts
	r := New(cfg, &memorySource{rows: source}, &memorySource{rows: target}, Deps{Checkpoints: store})

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, report.Counts)
	assert.Equal(t, 0, report.Counts.MissingCount)
	assert.Equal(t, 1, report.Counts.MismatchCount)
	assert.Equal(t, 4, report.Summary.TotalSourceRows)
	assert.Equal(t, 75.0, report.MatchPercentage)

	// Checkpoint is cleared after a completed run.
	_, ok, err := store.Load("users")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRun_CountsModeResumeCarriesTotals(t *testing.T) {
	source := []reconcile.Record{
		{"id": "0001", "v": "a"},
		{"id": "0002", "v": "b"},
		{"id": "0003", "v": "c"},
		{"id": "0004", "v": "d"},
	}

	store, err := checkpoint.NewStore(t.TempDir())
	require.NoError(t, err)

	// A previous run already counted the first window and found one
	// missing row there.
	require.NoError(t, store.Save(checkpoint.Checkpoint{
		Table:         "users",
		RunID:         "earlier-run",
		Offset:        2,
		BatchSize:     2,
		ProcessedRows: 2,
		MissingCount:  1,
	}))

	cfg := baseConfig()
	cfg.Mode = ModeCounts
	cfg.Resume = true
	r := New(cfg, &memorySource{rows: source}, &memorySource{rows: source}, Deps{Checkpoints: store})

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	// Carried missing count plus a clean second window.
	assert.Equal(t, 1, report.Counts.MissingCount)
	assert.Equal(t, 4, report.Summary.TotalSourceRows)
}

func TestRun_UnknownMode(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = "sideways"
	r := New(cfg, &memorySource{}, &memorySource{}, Deps{})

	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestRun_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	source := []reconcile.Record{{"id": int64(1), "v": "a"}, {"id": int64(2), "v": "b"}}
	target := []reconcile.Record{{"id": int64(1), "v": "a"}}

	r := New(baseConfig(), &memorySource{rows: source}, &memorySource{rows: target}, Deps{Metrics: m})
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("users", metrics.OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DiscrepanciesTotal.WithLabelValues("users", "missing")))
	assert.Equal(t, 50.0, testutil.ToFloat64(m.MatchPercentage.WithLabelValues("users")))
}

func TestRecommendationThresholds(t *testing.T) {
	assert.Equal(t, RecommendationNone, recommendation(100.0))
	assert.Equal(t, RecommendationAuto, recommendation(99.5))
	assert.Equal(t, RecommendationReview, recommendation(97.0))
	assert.Equal(t, RecommendationManual, recommendation(90.0))
}
