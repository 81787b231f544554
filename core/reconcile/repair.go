package reconcile

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ActionType is the kind of repair statement.
type ActionType string

const (
	ActionInsert ActionType = "INSERT"
	ActionDelete ActionType = "DELETE"
	ActionUpdate ActionType = "UPDATE"
)

// ActionStatus tracks an action through its lifecycle. Actions are
// generated pending, optionally executed once, and then discarded; the
// engine never retries them.
type ActionStatus string

const (
	StatusPending  ActionStatus = "pending"
	StatusExecuted ActionStatus = "executed"
	StatusFailed   ActionStatus = "failed"
)

// Action is one generated repair statement plus its provenance. Actions
// are value objects: RowData holds the originating row (or rows, for a
// batch insert) and SQL is ready to execute against the target store.
type Action struct {
	Type            ActionType      `json:"action_type"`
	Table           string          `json:"table"`
	SQL             string          `json:"sql"`
	RowData         any             `json:"row_data"`
	UpdatedFields   []string        `json:"updated_fields,omitempty"`
	BatchSize       int             `json:"batch_size,omitempty"`
	DiscrepancyType DiscrepancyKind `json:"discrepancy_type"`
	GeneratedAt     time.Time       `json:"generated_at"`
	DryRun          bool            `json:"dry_run"`
	Status          ActionStatus    `json:"status"`
	Error           string          `json:"error,omitempty"`
}

// GenerateRepairActions turns a discrepancy set into an ordered repair
// plan: DELETE actions for extra rows first, then INSERT for missing,
// then UPDATE for mismatches. Deletes before inserts before updates
// minimizes collision windows when a key is recycled across the
// extra/missing boundary.
func GenerateRepairActions(d *Discrepancies, table, schema string, key KeySpec, dryRun bool) ([]Action, error) {
	actions := make([]Action, 0, len(d.Extra)+len(d.Missing)+len(d.Mismatches))

	deletes, err := GenerateDeleteActions(d.Extra, table, schema, key)
	if err != nil {
		return nil, err
	}
	actions = append(actions, deletes...)

	inserts, err := GenerateInsertActions(d.Missing, table, schema, 0)
	if err != nil {
		return nil, err
	}
	actions = append(actions, inserts...)

	updates, err := GenerateUpdateActions(d.Mismatches, table, schema, key)
	if err != nil {
		return nil, err
	}
	actions = append(actions, updates...)

	for i := range actions {
		actions[i].DryRun = dryRun
	}
	return actions, nil
}

// GenerateInsertActions produces INSERT actions for missing rows. A
// positive batchSize folds rows into multi-row inserts of at most that
// many values tuples; otherwise one statement is generated per row.
func GenerateInsertActions(missing []Record, table, schema string, batchSize int) ([]Action, error) {
	if batchSize > 1 {
		actions := make([]Action, 0, (len(missing)+batchSize-1)/batchSize)
		for start := 0; start < len(missing); start += batchSize {
			end := start + batchSize
			if end > len(missing) {
				end = len(missing)
			}
			action, err := GenerateBatchInsertAction(missing[start:end], table, schema)
			if err != nil {
				return nil, err
			}
			actions = append(actions, action)
		}
		return actions, nil
	}

	actions := make([]Action, 0, len(missing))
	for _, row := range missing {
		action, err := generateInsertAction(row, table, schema)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}

// GenerateDeleteActions produces one DELETE per extra row, keyed by the
// key spec.
func GenerateDeleteActions(extra []Record, table, schema string, key KeySpec) ([]Action, error) {
	actions := make([]Action, 0, len(extra))
	for _, row := range extra {
		where, err := buildWhereClause(row, key)
		if err != nil {
			return nil, err
		}
		actions = append(actions, Action{
			Type:            ActionDelete,
			Table:           schema + "." + table,
			SQL:             fmt.Sprintf("DELETE FROM %s WHERE %s;", quoteTableRef(schema, table), where),
			RowData:         row,
			DiscrepancyType: KindExtra,
			GeneratedAt:     time.Now().UTC(),
			Status:          StatusPending,
		})
	}
	return actions, nil
}

// GenerateUpdateActions produces one UPDATE per mismatch, setting the
// target's fields to the source's values. Only fields whose values differ
// between the two payloads are updated; if none can be identified the
// update conservatively covers every non-key field, since a mismatch
// implies something differed.
func GenerateUpdateActions(mismatches []Mismatch, table, schema string, key KeySpec) ([]Action, error) {
	actions := make([]Action, 0, len(mismatches))
	for _, m := range mismatches {
		action, err := generateUpdateAction(m, table, schema, key)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}

// GenerateBatchInsertAction folds several rows into one multi-row INSERT.
// The column list comes from the first row (sorted for determinism);
// fields absent from a later row render as NULL. Requesting a batch over
// zero rows is a usage error.
func GenerateBatchInsertAction(rows []Record, table, schema string) (Action, error) {
	if len(rows) == 0 {
		return Action{}, ErrEmptyBatch
	}

	fields := fieldNames(rows[0])
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = QuoteIdentifier(f)
	}

	tuples := make([]string, 0, len(rows))
	for _, row := range rows {
		values := make([]string, len(fields))
		for i, f := range fields {
			v, err := formatSQLValue(row[f])
			if err != nil {
				return Action{}, err
			}
			values[i] = v
		}
		tuples = append(tuples, "("+strings.Join(values, ", ")+")")
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES\n    %s;",
		quoteTableRef(schema, table),
		strings.Join(quoted, ", "),
		strings.Join(tuples, ",\n    "))

	return Action{
		Type:            ActionInsert,
		Table:           schema + "." + table,
		SQL:             sql,
		RowData:         rows,
		BatchSize:       len(rows),
		DiscrepancyType: KindMissing,
		GeneratedAt:     time.Now().UTC(),
		Status:          StatusPending,
	}, nil
}

func generateInsertAction(row Record, table, schema string) (Action, error) {
	fields := fieldNames(row)
	quoted := make([]string, len(fields))
	values := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = QuoteIdentifier(f)
		v, err := formatSQLValue(row[f])
		if err != nil {
			return Action{}, err
		}
		values[i] = v
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		quoteTableRef(schema, table),
		strings.Join(quoted, ", "),
		strings.Join(values, ", "))

	return Action{
		Type:            ActionInsert,
		Table:           schema + "." + table,
		SQL:             sql,
		RowData:         row,
		DiscrepancyType: KindMissing,
		GeneratedAt:     time.Now().UTC(),
		Status:          StatusPending,
	}, nil
}

func generateUpdateAction(m Mismatch, table, schema string, key KeySpec) (Action, error) {
	updateFields := differingFields(m.Source, m.Target)
	if len(updateFields) == 0 {
		updateFields = nonKeyFields(m.Source, key)
	}

	setParts := make([]string, 0, len(updateFields))
	for _, f := range updateFields {
		v, err := formatSQLValue(m.Source[f])
		if err != nil {
			return Action{}, err
		}
		setParts = append(setParts, fmt.Sprintf("%s = %s", QuoteIdentifier(f), v))
	}

	where, err := buildWhereClause(m.Source, key)
	if err != nil {
		return Action{}, err
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s;",
		quoteTableRef(schema, table),
		strings.Join(setParts, ", "),
		where)

	return Action{
		Type:            ActionUpdate,
		Table:           schema + "." + table,
		SQL:             sql,
		RowData:         m.Source,
		UpdatedFields:   updateFields,
		DiscrepancyType: KindMismatch,
		GeneratedAt:     time.Now().UTC(),
		Status:          StatusPending,
	}, nil
}

// differingFields lists the source fields whose raw values differ from the
// target's, sorted for stable SET clauses.
func differingFields(source, target Record) []string {
	var fields []string
	for f, sv := range source {
		tv, ok := target[f]
		if !ok {
			continue
		}
		if !valuesEqual(Normalize(sv), Normalize(tv), DefaultFloatTolerance) {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)
	return fields
}

func nonKeyFields(row Record, key KeySpec) []string {
	keySet := make(map[string]struct{}, len(key))
	for _, f := range key {
		keySet[f] = struct{}{}
	}
	var fields []string
	for f := range row {
		if _, ok := keySet[f]; !ok {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)
	return fields
}

// buildWhereClause renders the key equality predicate for DELETE/UPDATE.
// Composite keys produce AND-joined equalities in the key's declared
// order.
func buildWhereClause(row Record, key KeySpec) (string, error) {
	conditions := make([]string, 0, len(key))
	for _, field := range key {
		value, ok := row[field]
		if !ok {
			return "", &MissingKeyFieldError{Field: field, Available: fieldNames(row)}
		}
		v, err := formatSQLValue(value)
		if err != nil {
			return "", err
		}
		conditions = append(conditions, fmt.Sprintf("%s = %s", QuoteIdentifier(field), v))
	}
	return strings.Join(conditions, " AND "), nil
}

// QuoteIdentifier renders an identifier in the target dialect's
// double-quote convention, doubling embedded quotes. Field and table
// names are external input: they can collide with reserved words or carry
// injection payloads, and quoting rather than blacklisting is the
// defense.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteTableRef(schema, table string) string {
	return QuoteIdentifier(schema) + "." + QuoteIdentifier(table)
}

// formatSQLValue renders a normalized value as a SQL literal. The type set
// is closed: anything outside it is an UnsupportedTypeError rather than a
// best-effort string, since an incorrect literal could corrupt the target
// store.
func formatSQLValue(v any) (string, error) {
	switch val := Normalize(v).(type) {
	case nil:
		return "NULL", nil
	case bool:
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case decimal.Decimal:
		return val.String(), nil
	case string:
		return quoteSQLString(val), nil
	case time.Time:
		return "'" + val.Format(time.RFC3339Nano) + "'", nil
	case time.Duration:
		return fmt.Sprintf("INTERVAL '%s seconds'", strconv.FormatFloat(val.Seconds(), 'f', -1, 64)), nil
	case []byte:
		return `'\x` + hex.EncodeToString(val) + "'", nil
	case []any, map[string]any:
		text, err := json.Marshal(val)
		if err != nil {
			return "", fmt.Errorf("failed to encode value as JSON: %w", err)
		}
		return quoteSQLString(string(text)), nil
	default:
		return "", &UnsupportedTypeError{Value: v}
	}
}

// quoteSQLString single-quotes a text literal, doubling embedded quotes.
func quoteSQLString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
