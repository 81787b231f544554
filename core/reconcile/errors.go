package reconcile

import (
	"errors"
	"fmt"
	"sort"
)

// ErrEmptyBatch is returned when a batch insert is requested over zero rows.
var ErrEmptyBatch = errors.New("cannot generate batch insert for empty rows")

// MissingKeyFieldError reports a key field absent from a record. Available
// lists the record's field names so the caller can see what was there
// instead.
type MissingKeyFieldError struct {
	Field     string
	Available []string
}

func (e *MissingKeyFieldError) Error() string {
	return fmt.Sprintf("key field %q not found in record, available fields: %v", e.Field, e.Available)
}

// NullKeyFieldError reports a key field whose value is NULL. Keys identify
// records, so a NULL key cannot be indexed or reasoned about.
type NullKeyFieldError struct {
	Field string
}

func (e *NullKeyFieldError) Error() string {
	return fmt.Sprintf("key field %q has NULL value, keys cannot be NULL", e.Field)
}

// RowIndexError wraps a key-extraction failure with the positional index of
// the offending record. Index building aborts on the first such failure.
type RowIndexError struct {
	Index int
	Err   error
}

func (e *RowIndexError) Error() string {
	return fmt.Sprintf("invalid record at index %d: %v", e.Index, e.Err)
}

func (e *RowIndexError) Unwrap() error { return e.Err }

// UnsupportedTypeError reports a value the SQL formatter refuses to render.
// Silently stringifying an unknown type could write a corrupt literal to
// the target store, so this is a hard error.
type UnsupportedTypeError struct {
	Value any
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf(
		"cannot format value of type %T for SQL, supported types: nil, bool, integer, float, decimal, string, time, duration, bytes, list, map",
		e.Value)
}

// fieldNames returns a record's field names in sorted order for stable
// error messages.
func fieldNames(rec Record) []string {
	names := make([]string, 0, len(rec))
	for name := range rec {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
