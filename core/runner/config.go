package runner

// Modes of operation for a run.
const (
	// ModeFull materializes both tables, finds every discrepancy with
	// row payloads, and can generate and execute repair actions.
	ModeFull = "full"
	// ModeCounts walks both tables window by window keeping only running
	// totals. Cheap on memory, supports resume, produces no repairs.
	ModeCounts = "counts"
)

// Config describes one reconciliation run.
type Config struct {
	// Table is the table name, identical on both stores.
	Table string `mapstructure:"table" default:""`
	// Schema qualifies generated repair statements.
	Schema string `mapstructure:"schema" default:"public"`
	// KeyFields name the row identity, in significance order.
	KeyFields []string `mapstructure:"key_fields"`
	// IgnoreFields are excluded from comparison (volatile columns such
	// as updated_at).
	IgnoreFields []string `mapstructure:"ignore_fields"`
	// BatchSize is the fetch window size.
	BatchSize int `mapstructure:"batch_size" default:"1000"`
	// Mode selects full or counts operation.
	Mode string `mapstructure:"mode" default:"full"`
	// DryRun marks generated actions as not-to-be-executed.
	DryRun bool `mapstructure:"dry_run" default:"true"`
	// Execute applies generated repair actions to the target store.
	Execute bool `mapstructure:"execute" default:"false"`
	// Resume continues a counts-mode run from its last checkpoint.
	Resume bool `mapstructure:"resume" default:"false"`
	// CheckpointDir is where batch progress is persisted.
	CheckpointDir string `mapstructure:"checkpoint_dir" default:".reconcile-checkpoints"`
}

func (c Config) batchSize() int {
	if c.BatchSize <= 0 {
		return 1000
	}
	return c.BatchSize
}
