package reconcile

import (
	"math"
	"sort"
)

// DiffOptions controls a differencing pass. The zero value compares with
// the default policy, case-sensitive keys, and no per-field detail.
type DiffOptions struct {
	// Compare is the row comparison policy applied to common keys.
	Compare CompareOptions
	// FoldKeys folds key values to lower case before indexing.
	FoldKeys bool
	// Detailed populates DifferingFields and Differences on mismatches.
	Detailed bool
}

// FindMissingInTarget returns source records whose keys are absent from
// the target collection.
func FindMissingInTarget(source, target []Record, key KeySpec, foldKeys bool) ([]Record, error) {
	sourceIndex, err := BuildIndex(source, key, foldKeys)
	if err != nil {
		return nil, err
	}
	targetIndex, err := BuildIndex(target, key, foldKeys)
	if err != nil {
		return nil, err
	}
	return subtractIndex(sourceIndex, targetIndex), nil
}

// FindExtraInTarget returns target records whose keys are absent from the
// source collection.
func FindExtraInTarget(source, target []Record, key KeySpec, foldKeys bool) ([]Record, error) {
	sourceIndex, err := BuildIndex(source, key, foldKeys)
	if err != nil {
		return nil, err
	}
	targetIndex, err := BuildIndex(target, key, foldKeys)
	if err != nil {
		return nil, err
	}
	return subtractIndex(targetIndex, sourceIndex), nil
}

// FindMismatches returns keys present in both collections whose records
// are not equal under the comparison policy.
func FindMismatches(source, target []Record, key KeySpec, opts DiffOptions) ([]Mismatch, error) {
	sourceIndex, err := BuildIndex(source, key, opts.FoldKeys)
	if err != nil {
		return nil, err
	}
	targetIndex, err := BuildIndex(target, key, opts.FoldKeys)
	if err != nil {
		return nil, err
	}
	return mismatchesBetween(sourceIndex, targetIndex, opts), nil
}

// FindAllDiscrepancies computes missing, extra, and mismatched keys in one
// pass over both indices. Any malformed key anywhere in either collection
// aborts the whole call with no partial result.
func FindAllDiscrepancies(source, target []Record, key KeySpec, opts DiffOptions) (*Discrepancies, error) {
	sourceIndex, err := BuildIndex(source, key, opts.FoldKeys)
	if err != nil {
		return nil, err
	}
	targetIndex, err := BuildIndex(target, key, opts.FoldKeys)
	if err != nil {
		return nil, err
	}

	return &Discrepancies{
		Missing:    subtractIndex(sourceIndex, targetIndex),
		Extra:      subtractIndex(targetIndex, sourceIndex),
		Mismatches: mismatchesBetween(sourceIndex, targetIndex, opts),
	}, nil
}

// GetDiscrepancySummary reports aggregate counts for a differencing pass,
// including the number of common keys that compared equal.
func GetDiscrepancySummary(source, target []Record, key KeySpec, opts DiffOptions) (*Summary, error) {
	sourceIndex, err := BuildIndex(source, key, opts.FoldKeys)
	if err != nil {
		return nil, err
	}
	targetIndex, err := BuildIndex(target, key, opts.FoldKeys)
	if err != nil {
		return nil, err
	}

	common := 0
	for k := range sourceIndex {
		if _, ok := targetIndex[k]; ok {
			common++
		}
	}
	mismatches := mismatchesBetween(sourceIndex, targetIndex, opts)

	return &Summary{
		TotalSourceRows: len(source),
		TotalTargetRows: len(target),
		MissingCount:    len(sourceIndex) - common,
		ExtraCount:      len(targetIndex) - common,
		MismatchCount:   len(mismatches),
		MatchCount:      common - len(mismatches),
	}, nil
}

// CalculateMatchPercentage returns the percentage of source rows that are
// neither missing from the target nor mismatched, rounded to two decimal
// places. An empty source is 100% matched.
func CalculateMatchPercentage(d *Discrepancies, totalSourceRows int) float64 {
	if totalSourceRows == 0 {
		return 100.0
	}
	issues := len(d.Missing) + len(d.Mismatches)
	pct := float64(totalSourceRows-issues) / float64(totalSourceRows) * 100.0
	return math.Round(pct*100) / 100
}

// FindDuplicates groups records by extracted key and reports every key
// occurring more than once. This is a diagnostic: BuildIndex silently
// keeps the last-seen record for a duplicate key.
func FindDuplicates(records []Record, key KeySpec) ([]Duplicate, error) {
	counts := make(map[Key]int, len(records))
	for i, rec := range records {
		k, err := ExtractKey(rec, key, false)
		if err != nil {
			return nil, &RowIndexError{Index: i, Err: err}
		}
		counts[k]++
	}

	var duplicates []Duplicate
	for k, count := range counts {
		if count > 1 {
			duplicates = append(duplicates, Duplicate{Key: k, Count: count})
		}
	}
	sort.Slice(duplicates, func(i, j int) bool { return duplicates[i].Key < duplicates[j].Key })
	return duplicates, nil
}

// FindSchemaDifferences unions field names across all rows of each side
// and reports fields unique to each plus the common set. Schemas may vary
// row to row, so every row contributes, not just the first.
func FindSchemaDifferences(source, target []Record) SchemaDiff {
	sourceFields := make(map[string]struct{})
	for _, rec := range source {
		for name := range rec {
			sourceFields[name] = struct{}{}
		}
	}
	targetFields := make(map[string]struct{})
	for _, rec := range target {
		for name := range rec {
			targetFields[name] = struct{}{}
		}
	}

	diff := SchemaDiff{
		OnlyInSource: []string{},
		OnlyInTarget: []string{},
		CommonFields: []string{},
	}
	for name := range sourceFields {
		if _, ok := targetFields[name]; ok {
			diff.CommonFields = append(diff.CommonFields, name)
		} else {
			diff.OnlyInSource = append(diff.OnlyInSource, name)
		}
	}
	for name := range targetFields {
		if _, ok := sourceFields[name]; !ok {
			diff.OnlyInTarget = append(diff.OnlyInTarget, name)
		}
	}

	sort.Strings(diff.OnlyInSource)
	sort.Strings(diff.OnlyInTarget)
	sort.Strings(diff.CommonFields)
	return diff
}

// GetRowByKey scans a collection for the record with the given key.
func GetRowByKey(records []Record, key KeySpec, want Key) (Record, bool, error) {
	for i, rec := range records {
		k, err := ExtractKey(rec, key, false)
		if err != nil {
			return nil, false, &RowIndexError{Index: i, Err: err}
		}
		if k == want {
			return rec, true, nil
		}
	}
	return nil, false, nil
}

// subtractIndex returns the records of keys present in left but not right,
// ordered by key for deterministic output.
func subtractIndex(left, right map[Key]Record) []Record {
	keys := make([]Key, 0)
	for k := range left {
		if _, ok := right[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rows := make([]Record, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, left[k])
	}
	return rows
}

// mismatchesBetween compares the records of every common key and collects
// the unequal ones, ordered by key.
func mismatchesBetween(sourceIndex, targetIndex map[Key]Record, opts DiffOptions) []Mismatch {
	keys := make([]Key, 0)
	for k := range sourceIndex {
		if _, ok := targetIndex[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	mismatches := make([]Mismatch, 0)
	for _, k := range keys {
		src, tgt := sourceIndex[k], targetIndex[k]
		if m, unequal := compareCommon(k, src, tgt, opts); unequal {
			mismatches = append(mismatches, m)
		}
	}
	return mismatches
}

// compareCommon compares one common key's records under the diff options,
// producing a Mismatch (with detail when requested) if they are unequal.
func compareCommon(k Key, src, tgt Record, opts DiffOptions) (Mismatch, bool) {
	if opts.Detailed {
		d := DiffRows(src, tgt, opts.Compare)
		if d.IsEqual {
			return Mismatch{}, false
		}
		return Mismatch{
			Key:             k,
			Source:          src,
			Target:          tgt,
			DifferingFields: d.DifferingFields,
			Differences:     d.Differences,
		}, true
	}

	if EqualRows(src, tgt, opts.Compare) {
		return Mismatch{}, false
	}
	return Mismatch{Key: k, Source: src, Target: tgt}, true
}
