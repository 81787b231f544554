package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cdc-reconciler/core/checkpoint"
	"cdc-reconciler/core/config"
	"cdc-reconciler/core/database"
	"cdc-reconciler/core/logger"
	"cdc-reconciler/core/runner"
	"cdc-reconciler/core/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the reconcile command
	tableName       string
	schemaName      string
	keyFields       []string
	ignoreFields    []string
	batchSize       int
	runMode         string
	dryRun          bool
	executeRepairs  bool
	resumeRun       bool
	yesConfirm      bool
	uploadReport    bool
	showActionLimit int
)

// reconcileCmd runs one reconciliation between the source and target tables.
var reconcileCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile a table between the source and target stores",
	Long: `Compare a table on the source store against its counterpart on the
target store, report missing, extra, and mismatched rows, and optionally
generate and apply repair SQL.

Examples:
  # Report only (dry-run, the default)
  cdc-reconciler run --table users --key-field id

  # Composite key, ignoring a volatile column
  cdc-reconciler run --table orders --key-field region --key-field id --ignore-fields updated_at

  # Counts-only pass over a huge table, resumable
  cdc-reconciler run --table events --key-field id --mode counts --resume

  # Apply repairs (interactive confirmation)
  cdc-reconciler run --table users --key-field id --dry-run=false --execute

  # Apply repairs non-interactively
  cdc-reconciler run --table users --key-field id --dry-run=false --execute --yes`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&tableName, "table", "", "Table to reconcile (required)")
	reconcileCmd.Flags().StringVar(&schemaName, "schema", "", "Schema qualifier for generated SQL (defaults to config)")
	reconcileCmd.Flags().StringArrayVar(&keyFields, "key-field", nil, "Key field, repeatable for composite keys (required)")
	reconcileCmd.Flags().StringSliceVar(&ignoreFields, "ignore-fields", nil, "Fields excluded from comparison")
	reconcileCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Fetch window size (defaults to config)")
	reconcileCmd.Flags().StringVar(&runMode, "mode", "", "Run mode: full or counts (defaults to config)")
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", true, "Generate repair actions without applying them")
	reconcileCmd.Flags().BoolVar(&executeRepairs, "execute", false, "Apply generated repair actions to the target")
	reconcileCmd.Flags().BoolVar(&resumeRun, "resume", false, "Resume a counts-mode run from its checkpoint")
	reconcileCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	reconcileCmd.Flags().BoolVar(&uploadReport, "upload", false, "Archive the report in object storage")
	reconcileCmd.Flags().IntVar(&showActionLimit, "show-actions", 5, "How many sample actions to log")

	_ = reconcileCmd.MarkFlagRequired("table")
	_ = reconcileCmd.MarkFlagRequired("key-field")

	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	runCfg := mergeRunConfig(cfg.Reconcile)

	// Destructive operation guard: applying repairs mutates the target.
	if executeRepairs && !runCfg.DryRun {
		if !confirmDestructiveAction() {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
	}

	sourceDB, err := database.Connect(cfg.Source)
	if err != nil {
		return fmt.Errorf("failed to connect to source store: %w", err)
	}
	targetDB, err := database.Connect(cfg.Target)
	if err != nil {
		return fmt.Errorf("failed to connect to target store: %w", err)
	}

	checkpoints, err := checkpoint.NewStore(runCfg.CheckpointDir)
	if err != nil {
		return err
	}

	deps := runner.Deps{
		Checkpoints: checkpoints,
		Logger:      l,
	}
	if executeRepairs {
		deps.Executor = database.NewExecutor(targetDB)
	}

	r := runner.New(runCfg,
		database.NewTableReader(sourceDB, runCfg.Table, runCfg.KeyFields),
		database.NewTableReader(targetDB, runCfg.Table, runCfg.KeyFields),
		deps)

	report, err := r.Run(ctx)
	if err != nil {
		return err
	}

	printReport(l, report)

	if uploadReport {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		name, err := storage.UploadReport(ctx, client, cfg.Storage.Bucket, report.Table, report.RunID, report)
		if err != nil {
			return fmt.Errorf("failed to archive report: %w", err)
		}
		l.Info("Report archived", zap.String("object", name))
	}

	return nil
}

// mergeRunConfig overlays the CLI flags onto the configured run defaults.
func mergeRunConfig(base runner.Config) runner.Config {
	base.Table = tableName
	base.KeyFields = keyFields
	if schemaName != "" {
		base.Schema = schemaName
	}
	if len(ignoreFields) > 0 {
		base.IgnoreFields = ignoreFields
	}
	if batchSize > 0 {
		base.BatchSize = batchSize
	}
	if runMode != "" {
		base.Mode = runMode
	}
	base.DryRun = dryRun
	base.Execute = executeRepairs
	base.Resume = resumeRun
	return base
}

// printReport logs the run outcome and a sample of the generated actions.
func printReport(l *zap.Logger, report *runner.Report) {
	s := report.Summary

	l.Info("Reconciliation report",
		zap.String("run_id", report.RunID),
		zap.String("table", report.Table),
		zap.Int("source_rows", s.TotalSourceRows),
		zap.Int("target_rows", s.TotalTargetRows),
		zap.Int("missing", s.MissingCount),
		zap.Int("extra", s.ExtraCount),
		zap.Int("mismatched", s.MismatchCount),
		zap.Float64("match_percentage", report.MatchPercentage),
		zap.String("recommendation", report.Recommendation),
	)

	if len(report.Actions) > 0 {
		maxShow := showActionLimit
		if len(report.Actions) < maxShow {
			maxShow = len(report.Actions)
		}
		for i := 0; i < maxShow; i++ {
			action := report.Actions[i]
			l.Info("Sample action",
				zap.String("type", string(action.Type)),
				zap.String("status", string(action.Status)),
				zap.String("sql", action.SQL),
			)
		}
		if len(report.Actions) > maxShow {
			l.Info("Additional actions not shown", zap.Int("count", len(report.Actions)-maxShow))
		}
	}

	// The full report goes to stdout as JSON so it can be piped onward.
	if data, err := json.MarshalIndent(report, "", "  "); err == nil {
		fmt.Println(string(data))
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm repair execution against the target store: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
