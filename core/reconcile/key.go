package reconcile

import (
	"fmt"
	"strings"
)

// KeySpec names the field (or ordered list of fields) that identifies a
// record. A single-element spec is a simple key; multiple elements form a
// composite key whose part order is significant.
type KeySpec []string

// SingleKey builds a key spec for one field.
func SingleKey(field string) KeySpec { return KeySpec{field} }

// IsComposite reports whether the spec names more than one field.
func (s KeySpec) IsComposite() bool { return len(s) > 1 }

// keyPartSeparator joins composite key parts. The unit separator cannot
// collide with printable field values the way "|" or "," could.
const keyPartSeparator = "\x1f"

// Key is the extracted identity of a record: the stringified key field for
// a simple key, or the parts joined in spec order for a composite key.
// Key is a value type, so it can index maps and compare with ==.
type Key string

// NewKey builds a Key from explicit part values, stringified the same way
// ExtractKey stringifies record values.
func NewKey(parts ...any) Key {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = stringifyKeyPart(p)
	}
	return Key(strings.Join(strs, keyPartSeparator))
}

// Parts splits a composite key back into its ordered part values.
func (k Key) Parts() []string {
	return strings.Split(string(k), keyPartSeparator)
}

// String renders the key for logs and reports, joining composite parts
// with a colon.
func (k Key) String() string {
	return strings.Join(k.Parts(), ":")
}

// ExtractKey extracts the record's key per the key spec. Every key field must
// be present and non-NULL: absence yields a MissingKeyFieldError and a
// NULL value yields a NullKeyFieldError. With foldCase the key value is
// lowercased.
func ExtractKey(rec Record, spec KeySpec, foldCase bool) (Key, error) {
	parts := make([]string, 0, len(spec))
	for _, field := range spec {
		value, ok := rec[field]
		if !ok {
			return "", &MissingKeyFieldError{Field: field, Available: fieldNames(rec)}
		}
		if value == nil {
			return "", &NullKeyFieldError{Field: field}
		}

		part := stringifyKeyPart(value)
		if foldCase {
			part = strings.ToLower(part)
		}
		parts = append(parts, part)
	}
	return Key(strings.Join(parts, keyPartSeparator)), nil
}

// BuildIndex maps every record's key to the record. The first extraction
// failure aborts the build, wrapped with the offending record's positional
// index; no partial index is ever returned. Duplicate keys silently keep
// the last-seen record; use FindDuplicates to detect them.
func BuildIndex(records []Record, spec KeySpec, foldCase bool) (map[Key]Record, error) {
	index := make(map[Key]Record, len(records))
	for i, rec := range records {
		key, err := ExtractKey(rec, spec, foldCase)
		if err != nil {
			return nil, &RowIndexError{Index: i, Err: err}
		}
		index[key] = rec
	}
	return index, nil
}

// stringifyKeyPart renders a key field value as a string. Byte slices are
// treated as text; everything else uses the default formatting.
func stringifyKeyPart(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
