package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Checkpoint records how far a batched run got through one table, so an
// interrupted run can resume from the last completed batch instead of
// starting over.
type Checkpoint struct {
	Table         string    `json:"table"`
	RunID         string    `json:"run_id"`
	Offset        int       `json:"offset"`
	BatchSize     int       `json:"batch_size"`
	ProcessedRows int       `json:"processed_rows"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Running totals carried across a resume, so completed windows are
	// not recounted.
	MissingCount  int `json:"missing_count"`
	ExtraCount    int `json:"extra_count"`
	MismatchCount int `json:"mismatch_count"`
}

// Store persists checkpoints as one JSON file per table.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the checkpoint for its table, replacing any previous one.
// The write goes through a temp file and rename so a crash mid-write
// never leaves a truncated checkpoint behind.
func (s *Store) Save(cp Checkpoint) error {
	cp.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint for %s: %w", cp.Table, err)
	}

	path := s.path(cp.Table)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint for %s: %w", cp.Table, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit checkpoint for %s: %w", cp.Table, err)
	}
	return nil
}

// Load returns the checkpoint for a table. The second return value is
// false when no checkpoint exists.
func (s *Store) Load(table string) (Checkpoint, bool, error) {
	data, err := os.ReadFile(s.path(table))
	if errors.Is(err, os.ErrNotExist) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("failed to read checkpoint for %s: %w", table, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("failed to decode checkpoint for %s: %w", table, err)
	}
	return cp, true, nil
}

// Clear removes the checkpoint for a table. Clearing a table that has no
// checkpoint is not an error.
func (s *Store) Clear(table string) error {
	err := os.Remove(s.path(table))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear checkpoint for %s: %w", table, err)
	}
	return nil
}

// List returns every stored checkpoint, sorted by table name.
func (s *Store) List() ([]Checkpoint, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	var checkpoints []Checkpoint
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		table := strings.TrimSuffix(entry.Name(), ".json")
		cp, ok, err := s.Load(table)
		if err != nil {
			return nil, err
		}
		if ok {
			checkpoints = append(checkpoints, cp)
		}
	}

	sort.Slice(checkpoints, func(i, j int) bool { return checkpoints[i].Table < checkpoints[j].Table })
	return checkpoints, nil
}

func (s *Store) path(table string) string {
	return filepath.Join(s.dir, table+".json")
}
