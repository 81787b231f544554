package database

import (
	"context"
	"fmt"
	"strings"

	"cdc-reconciler/core/reconcile"

	"gorm.io/gorm"
)

// TableReader pages rows out of one table in a stable key order, so that
// the same offset always names the same window between runs.
type TableReader struct {
	db      *gorm.DB
	table   string
	orderBy []string
}

// NewTableReader creates a reader over the given table, ordered by the
// key fields.
func NewTableReader(db *gorm.DB, table string, orderBy []string) *TableReader {
	return &TableReader{db: db, table: table, orderBy: orderBy}
}

// FetchBatch returns up to limit rows starting at offset.
func (r *TableReader) FetchBatch(ctx context.Context, offset, limit int) ([]reconcile.Record, error) {
	var rows []map[string]any

	tx := r.db.WithContext(ctx).Table(r.table)
	if len(r.orderBy) > 0 {
		tx = tx.Order(orderClause(r.orderBy))
	}
	if err := tx.Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch batch from %s at offset %d: %w", r.table, offset, err)
	}

	records := make([]reconcile.Record, len(rows))
	for i, row := range rows {
		records[i] = reconcile.Record(row)
	}
	return records, nil
}

// Count returns the total row count of the table.
func (r *TableReader) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Table(r.table).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", r.table, err)
	}
	return count, nil
}

// Executor runs generated repair statements against a target store.
type Executor struct {
	db *gorm.DB
}

// NewExecutor wraps a connection for statement execution.
func NewExecutor(db *gorm.DB) *Executor {
	return &Executor{db: db}
}

// Execute runs one statement and returns the number of affected rows.
func (e *Executor) Execute(ctx context.Context, sql string) (int64, error) {
	tx := e.db.WithContext(ctx).Exec(sql)
	if tx.Error != nil {
		return 0, fmt.Errorf("failed to execute statement: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}

// orderClause builds an ORDER BY expression over the key fields. Field
// names are backtick-quoted for the MySQL dialect, with embedded
// backticks doubled.
func orderClause(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = "`" + strings.ReplaceAll(f, "`", "``") + "`"
	}
	return strings.Join(quoted, ", ")
}
