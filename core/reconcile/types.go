package reconcile

// Record is a schema-less row: a mapping from field name to a scalar or
// nested value. Two records being compared may have disjoint field sets;
// comparison is restricted to the field-name intersection.
//
// Values are expected to come from the closed set handled by Normalize:
// nil, bool, integers, float64, decimal.Decimal, string, time.Time,
// []byte, time.Duration, []any, map[string]any, and uuid.UUID.
type Record = map[string]any

// DiscrepancyKind classifies a detected discrepancy.
type DiscrepancyKind string

const (
	// KindMissing marks a key present in source but absent from target.
	KindMissing DiscrepancyKind = "missing"
	// KindExtra marks a key present in target but absent from source.
	KindExtra DiscrepancyKind = "extra"
	// KindMismatch marks a key present in both sides with unequal values.
	KindMismatch DiscrepancyKind = "mismatch"
)

// Mismatch describes a key present in both indices whose records are not
// equal under the comparer. DifferingFields and Differences are only
// populated by the detailed variants.
type Mismatch struct {
	Key    Key    `json:"key"`
	Source Record `json:"source"`
	Target Record `json:"target"`

	DifferingFields []string             `json:"differing_fields,omitempty"`
	Differences     map[string]FieldDiff `json:"differences,omitempty"`
}

// Discrepancies is the full result of a differencing pass: three disjoint
// collections keyed on the same key spec.
type Discrepancies struct {
	// Missing holds source records whose keys are absent from the target.
	Missing []Record `json:"missing"`
	// Extra holds target records whose keys are absent from the source.
	Extra []Record `json:"extra"`
	// Mismatches holds keys present in both sides with unequal records.
	Mismatches []Mismatch `json:"mismatches"`
}

// Summary reports aggregate discrepancy statistics for one differencing
// pass. MatchCount is the number of common keys whose records compared
// equal.
type Summary struct {
	TotalSourceRows int `json:"total_source_rows"`
	TotalTargetRows int `json:"total_target_rows"`
	MissingCount    int `json:"missing_count"`
	ExtraCount      int `json:"extra_count"`
	MismatchCount   int `json:"mismatch_count"`
	MatchCount      int `json:"match_count"`
}

// Duplicate reports a key extracted from more than one record in a single
// collection.
type Duplicate struct {
	Key   Key `json:"key"`
	Count int `json:"count"`
}

// SchemaDiff reports field names unique to each side and common to both,
// aggregated across every row of each collection (schemas may vary row to
// row). All three lists are sorted.
type SchemaDiff struct {
	OnlyInSource []string `json:"only_in_source"`
	OnlyInTarget []string `json:"only_in_target"`
	CommonFields []string `json:"common_fields"`
}

// Discrepancy is one streamed differencing result. Row carries the source
// record for missing keys and the target record for extra keys; Mismatch
// is set only when Kind is KindMismatch.
type Discrepancy struct {
	Kind     DiscrepancyKind
	Key      Key
	Row      Record
	Mismatch *Mismatch
}

// BatchedCounts is the result of the count-only batched differencing
// variant. It retains no row payloads.
type BatchedCounts struct {
	MissingCount  int `json:"missing_count"`
	ExtraCount    int `json:"extra_count"`
	MismatchCount int `json:"mismatch_count"`
}
