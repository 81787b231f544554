package runner

import (
	"context"
	"fmt"
	"time"

	"cdc-reconciler/core/checkpoint"
	"cdc-reconciler/core/logger"
	"cdc-reconciler/core/metrics"
	"cdc-reconciler/core/reconcile"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RowSource pages rows out of one table.
type RowSource interface {
	FetchBatch(ctx context.Context, offset, limit int) ([]reconcile.Record, error)
}

// StatementExecutor applies a repair statement to the target store.
type StatementExecutor interface {
	Execute(ctx context.Context, sql string) (int64, error)
}

// Deps carries the optional collaborators of a run. Executor is required
// only when Config.Execute is set; nil Metrics and Checkpoints disable
// those concerns.
type Deps struct {
	Executor    StatementExecutor
	Checkpoints *checkpoint.Store
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// Runner orchestrates one reconciliation run between a source and a
// target table.
type Runner struct {
	cfg    Config
	source RowSource
	target RowSource
	deps   Deps
}

// New creates a runner for the given pair of row sources.
func New(cfg Config, source, target RowSource, deps Deps) *Runner {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, source: source, target: target, deps: deps}
}

// Run executes the configured reconciliation and returns its report.
// Failures during repair execution do not fail the run: each action
// carries its own status, and the report counts executed and failed
// actions separately.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	log := logger.WithRunID(r.deps.Logger, runID).With(zap.String("table", r.cfg.Table))
	start := time.Now()

	log.Info("Starting reconciliation run",
		zap.String("mode", r.cfg.Mode),
		zap.Strings("key_fields", r.cfg.KeyFields),
		zap.Int("batch_size", r.cfg.batchSize()))

	var report *Report
	var err error
	switch r.cfg.Mode {
	case ModeCounts:
		report, err = r.runCounts(ctx, runID, log)
	case ModeFull, "":
		report, err = r.runFull(ctx, runID, log)
	default:
		err = fmt.Errorf("unknown mode %q", r.cfg.Mode)
	}

	duration := time.Since(start)
	if err != nil {
		if r.deps.Metrics != nil {
			r.deps.Metrics.ObserveRun(r.cfg.Table, metrics.OutcomeFailed, duration, 0)
		}
		log.Error("Reconciliation run failed", zap.Error(err))
		return nil, err
	}

	report.DurationSeconds = duration.Seconds()
	report.Recommendation = recommendation(report.MatchPercentage)

	if r.deps.Metrics != nil {
		r.deps.Metrics.ObserveRun(r.cfg.Table, metrics.OutcomeCompleted, duration, report.MatchPercentage)
		r.deps.Metrics.ObserveSummary(r.cfg.Table, &report.Summary)
		for _, action := range report.Actions {
			r.deps.Metrics.ObserveAction(r.cfg.Table, action)
		}
	}

	log.Info("Reconciliation run complete",
		zap.Float64("match_percentage", report.MatchPercentage),
		zap.String("recommendation", report.Recommendation),
		zap.Int("executed", report.ExecutedCount),
		zap.Int("failed", report.FailedCount),
		zap.Duration("duration", duration))

	return report, nil
}

// runFull materializes both tables, diffs them whole, and optionally
// generates and executes repairs.
func (r *Runner) runFull(ctx context.Context, runID string, log *zap.Logger) (*Report, error) {
	source, err := r.fetchAll(ctx, r.source)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source rows: %w", err)
	}
	target, err := r.fetchAll(ctx, r.target)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch target rows: %w", err)
	}

	log.Info("Fetched both sides",
		zap.Int("source_rows", len(source)),
		zap.Int("target_rows", len(target)))

	opts := reconcile.DiffOptions{
		Compare:  reconcile.CompareOptions{IgnoreFields: r.cfg.IgnoreFields},
		Detailed: true,
	}
	key := reconcile.KeySpec(r.cfg.KeyFields)

	discrepancies, err := reconcile.FindAllDiscrepancies(source, target, key, opts)
	if err != nil {
		return nil, err
	}
	summary, err := reconcile.GetDiscrepancySummary(source, target, key, opts)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:           runID,
		Table:           r.cfg.Table,
		Mode:            ModeFull,
		GeneratedAt:     time.Now().UTC(),
		Summary:         *summary,
		MatchPercentage: reconcile.CalculateMatchPercentage(discrepancies, summary.TotalSourceRows),
	}

	if summary.MissingCount+summary.ExtraCount+summary.MismatchCount == 0 {
		return report, nil
	}

	actions, err := reconcile.GenerateRepairActions(discrepancies, r.cfg.Table, r.cfg.Schema, key, r.cfg.DryRun)
	if err != nil {
		return nil, fmt.Errorf("failed to generate repair actions: %w", err)
	}
	report.Actions = actions

	if r.cfg.Execute && !r.cfg.DryRun {
		r.executeActions(ctx, report, log)
	}

	return report, nil
}

// executeActions applies each pending action best-effort: a failed
// statement is recorded on the action and execution moves on.
func (r *Runner) executeActions(ctx context.Context, report *Report, log *zap.Logger) {
	if r.deps.Executor == nil {
		log.Warn("Execution requested but no executor configured; leaving actions pending")
		return
	}

	for i := range report.Actions {
		action := &report.Actions[i]
		affected, err := r.deps.Executor.Execute(ctx, action.SQL)
		if err != nil {
			action.Status = reconcile.StatusFailed
			action.Error = err.Error()
			report.FailedCount++
			log.Warn("Repair action failed",
				zap.String("action", string(action.Type)),
				zap.Error(err))
			continue
		}
		action.Status = reconcile.StatusExecuted
		report.ExecutedCount++
		log.Debug("Repair action executed",
			zap.String("action", string(action.Type)),
			zap.Int64("rows_affected", affected))
	}
}

// runCounts walks both tables window by window, keeping only running
// totals. Windows are aligned positionally on the shared key order;
// rows whose keys drift across a window boundary can be double-counted
// as missing on one side and extra on the other, so counts-mode totals
// are an approximation. Progress is checkpointed after every window.
func (r *Runner) runCounts(ctx context.Context, runID string, log *zap.Logger) (*Report, error) {
	batchSize := r.cfg.batchSize()
	key := reconcile.KeySpec(r.cfg.KeyFields)
	compare := reconcile.CompareOptions{IgnoreFields: r.cfg.IgnoreFields}

	offset := 0
	processedSource := 0
	processedTarget := 0
	counts := reconcile.BatchedCounts{}

	if r.cfg.Resume && r.deps.Checkpoints != nil {
		cp, ok, err := r.deps.Checkpoints.Load(r.cfg.Table)
		if err != nil {
			return nil, err
		}
		if ok {
			offset = cp.Offset
			processedSource = cp.ProcessedRows
			counts = reconcile.BatchedCounts{
				MissingCount:  cp.MissingCount,
				ExtraCount:    cp.ExtraCount,
				MismatchCount: cp.MismatchCount,
			}
			log.Info("Resuming from checkpoint",
				zap.Int("offset", offset),
				zap.String("previous_run_id", cp.RunID))
		}
	}

	for {
		sourceBatch, err := r.source.FetchBatch(ctx, offset, batchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch source batch at offset %d: %w", offset, err)
		}
		targetBatch, err := r.target.FetchBatch(ctx, offset, batchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch target batch at offset %d: %w", offset, err)
		}
		if len(sourceBatch) == 0 && len(targetBatch) == 0 {
			break
		}

		sourceIndex, err := reconcile.BuildIndex(sourceBatch, key, false)
		if err != nil {
			return nil, err
		}
		targetIndex, err := reconcile.BuildIndex(targetBatch, key, false)
		if err != nil {
			return nil, err
		}

		for k, row := range sourceIndex {
			tgt, ok := targetIndex[k]
			if !ok {
				counts.MissingCount++
				continue
			}
			if !reconcile.EqualRows(row, tgt, compare) {
				counts.MismatchCount++
			}
		}
		for k := range targetIndex {
			if _, ok := sourceIndex[k]; !ok {
				counts.ExtraCount++
			}
		}

		processedSource += len(sourceBatch)
		processedTarget += len(targetBatch)
		offset += batchSize

		if r.deps.Checkpoints != nil {
			err := r.deps.Checkpoints.Save(checkpoint.Checkpoint{
				Table:         r.cfg.Table,
				RunID:         runID,
				Offset:        offset,
				BatchSize:     batchSize,
				ProcessedRows: processedSource,
				MissingCount:  counts.MissingCount,
				ExtraCount:    counts.ExtraCount,
				MismatchCount: counts.MismatchCount,
			})
			if err != nil {
				return nil, err
			}
		}

		log.Debug("Window processed",
			zap.Int("offset", offset),
			zap.Int("missing", counts.MissingCount),
			zap.Int("extra", counts.ExtraCount),
			zap.Int("mismatched", counts.MismatchCount))
	}

	if r.deps.Checkpoints != nil {
		if err := r.deps.Checkpoints.Clear(r.cfg.Table); err != nil {
			return nil, err
		}
	}

	matched := processedSource - counts.MissingCount - counts.MismatchCount
	matchPercentage := 100.0
	if processedSource > 0 {
		matchPercentage = float64(matched) / float64(processedSource) * 100.0
	}

	return &Report{
		RunID:       runID,
		Table:       r.cfg.Table,
		Mode:        ModeCounts,
		GeneratedAt: time.Now().UTC(),
		Summary: reconcile.Summary{
			TotalSourceRows: processedSource,
			TotalTargetRows: processedTarget,
			MissingCount:    counts.MissingCount,
			ExtraCount:      counts.ExtraCount,
			MismatchCount:   counts.MismatchCount,
			MatchCount:      matched,
		},
		Counts:          &counts,
		MatchPercentage: matchPercentage,
	}, nil
}

func (r *Runner) fetchAll(ctx context.Context, src RowSource) ([]reconcile.Record, error) {
	batchSize := r.cfg.batchSize()
	var all []reconcile.Record
	for offset := 0; ; offset += batchSize {
		batch, err := src.FetchBatch(ctx, offset, batchSize)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < batchSize {
			return all, nil
		}
	}
}
