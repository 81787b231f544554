package reconcile

import (
	"bytes"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultFloatTolerance is the absolute tolerance used for float equality
// when CompareOptions.FloatTolerance is zero.
const DefaultFloatTolerance = 1e-4

// CompareOptions controls row comparison. The zero value is the default
// policy: no ignored fields, case-sensitive field names, float tolerance
// of DefaultFloatTolerance.
type CompareOptions struct {
	// IgnoreFields lists field names excluded from comparison.
	IgnoreFields []string
	// IgnoreCase folds field names when matching them across rows.
	IgnoreCase bool
	// FloatTolerance is the absolute tolerance for float equality.
	// Zero means DefaultFloatTolerance.
	FloatTolerance float64
}

func (o CompareOptions) tolerance() float64 {
	if o.FloatTolerance == 0 {
		return DefaultFloatTolerance
	}
	return o.FloatTolerance
}

// FieldDiff holds the two sides of a differing field.
type FieldDiff struct {
	Source any `json:"source"`
	Target any `json:"target"`
}

// RowDiff is the detailed result of comparing two rows. Field lists are
// sorted lexically; Differences is keyed by the source-side field name.
type RowDiff struct {
	IsEqual         bool                 `json:"is_equal"`
	MatchingFields  []string             `json:"matching_fields"`
	DifferingFields []string             `json:"differing_fields"`
	Differences     map[string]FieldDiff `json:"differences"`
}

// EqualRows reports whether two rows are equal under the given policy.
// Both rows are normalized, comparison runs over the intersection of their
// field names minus ignored fields, and each common field is compared with
// type-aware equality. Rows with no common fields are vacuously equal.
func EqualRows(source, target Record, opts CompareOptions) bool {
	normSource := NormalizeRecord(source)
	normTarget := NormalizeRecord(target)

	tol := opts.tolerance()
	for _, pair := range commonFields(normSource, normTarget, opts) {
		if !valuesEqual(normSource[pair[0]], normTarget[pair[1]], tol) {
			return false
		}
	}
	return true
}

// DiffRows compares two rows and reports per-field detail: which common
// fields match, which differ, and both values for each differing field.
func DiffRows(source, target Record, opts CompareOptions) RowDiff {
	normSource := NormalizeRecord(source)
	normTarget := NormalizeRecord(target)

	diff := RowDiff{
		MatchingFields:  []string{},
		DifferingFields: []string{},
		Differences:     map[string]FieldDiff{},
	}

	tol := opts.tolerance()
	for _, pair := range commonFields(normSource, normTarget, opts) {
		sv, tv := normSource[pair[0]], normTarget[pair[1]]
		if valuesEqual(sv, tv, tol) {
			diff.MatchingFields = append(diff.MatchingFields, pair[0])
		} else {
			diff.DifferingFields = append(diff.DifferingFields, pair[0])
			diff.Differences[pair[0]] = FieldDiff{Source: sv, Target: tv}
		}
	}

	sort.Strings(diff.MatchingFields)
	sort.Strings(diff.DifferingFields)
	diff.IsEqual = len(diff.DifferingFields) == 0
	return diff
}

// commonFields returns the pairs of field names common to both rows after
// removing ignored fields. Each pair holds the source-side and target-side
// spelling; when folding case the source spelling is the canonical
// representative. Pairs are sorted by source name for determinism.
func commonFields(source, target Record, opts CompareOptions) [][2]string {
	ignored := make(map[string]struct{}, len(opts.IgnoreFields))
	for _, f := range opts.IgnoreFields {
		if opts.IgnoreCase {
			f = strings.ToLower(f)
		}
		ignored[f] = struct{}{}
	}

	var pairs [][2]string
	if opts.IgnoreCase {
		targetByFold := make(map[string]string, len(target))
		for name := range target {
			targetByFold[strings.ToLower(name)] = name
		}
		for name := range source {
			fold := strings.ToLower(name)
			if _, skip := ignored[fold]; skip {
				continue
			}
			if targetName, ok := targetByFold[fold]; ok {
				pairs = append(pairs, [2]string{name, targetName})
			}
		}
	} else {
		for name := range source {
			if _, skip := ignored[name]; skip {
				continue
			}
			if _, ok := target[name]; ok {
				pairs = append(pairs, [2]string{name, name})
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })
	return pairs
}

// valuesEqual compares two normalized values. NULL equals only NULL, floats
// compare within tol, decimals by magnitude, timestamps by instant, lists
// element-wise in order, and maps by key set and recursive value equality.
func valuesEqual(a, b any, tol float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	switch av := a.(type) {
	case decimal.Decimal:
		bv, ok := b.(decimal.Decimal)
		return ok && av.Equal(bv)
	case float64:
		bv, ok := b.(float64)
		return ok && math.Abs(av-bv) < tol
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i], tol) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, present := bv[k]
			if !present || !valuesEqual(v, other, tol) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}
