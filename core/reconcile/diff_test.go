package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixture: source {1:a, 2:b, 3:c, 5:e} vs target {1:a, 2:b*, 4:d} keyed on
// id gives missing {3,5}, extra {4}, mismatch {2}, match_count 1.
func fixtureSource() []Record {
	return []Record{
		{"id": 1, "v": "a"},
		{"id": 2, "v": "b"},
		{"id": 3, "v": "c"},
		{"id": 5, "v": "e"},
	}
}

func fixtureTarget() []Record {
	return []Record{
		{"id": 1, "v": "a"},
		{"id": 2, "v": "b*"},
		{"id": 4, "v": "d"},
	}
}

func TestFindAllDiscrepancies_SetAlgebra(t *testing.T) {
	d, err := FindAllDiscrepancies(fixtureSource(), fixtureTarget(), SingleKey("id"), DiffOptions{})
	require.NoError(t, err)

	missingKeys := recordKeys(t, d.Missing, "id")
	extraKeys := recordKeys(t, d.Extra, "id")

	assert.ElementsMatch(t, []int{3, 5}, missingKeys)
	assert.ElementsMatch(t, []int{4}, extraKeys)

	require.Len(t, d.Mismatches, 1)
	assert.Equal(t, NewKey(2), d.Mismatches[0].Key)
	assert.Equal(t, "b", d.Mismatches[0].Source["v"])
	assert.Equal(t, "b*", d.Mismatches[0].Target["v"])
}

func TestFindAllDiscrepancies_DetailedMismatches(t *testing.T) {
	d, err := FindAllDiscrepancies(fixtureSource(), fixtureTarget(), SingleKey("id"), DiffOptions{Detailed: true})
	require.NoError(t, err)

	require.Len(t, d.Mismatches, 1)
	m := d.Mismatches[0]
	assert.Equal(t, []string{"v"}, m.DifferingFields)
	require.Contains(t, m.Differences, "v")
	assert.Equal(t, "b", m.Differences["v"].Source)
	assert.Equal(t, "b*", m.Differences["v"].Target)
}

func TestFindAllDiscrepancies_MalformedKeyAbortsWholeCall(t *testing.T) {
	target := append(fixtureTarget(), Record{"v": "no key"})

	d, err := FindAllDiscrepancies(fixtureSource(), target, SingleKey("id"), DiffOptions{})
	require.Error(t, err)
	assert.Nil(t, d, "no partial results")

	var rowErr *RowIndexError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Index)
}

func TestFindMissingAndExtra(t *testing.T) {
	missing, err := FindMissingInTarget(fixtureSource(), fixtureTarget(), SingleKey("id"), false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{3, 5}, recordKeys(t, missing, "id"))

	extra, err := FindExtraInTarget(fixtureSource(), fixtureTarget(), SingleKey("id"), false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{4}, recordKeys(t, extra, "id"))
}

func TestGetDiscrepancySummary(t *testing.T) {
	s, err := GetDiscrepancySummary(fixtureSource(), fixtureTarget(), SingleKey("id"), DiffOptions{})
	require.NoError(t, err)

	assert.Equal(t, 4, s.TotalSourceRows)
	assert.Equal(t, 3, s.TotalTargetRows)
	assert.Equal(t, 2, s.MissingCount)
	assert.Equal(t, 1, s.ExtraCount)
	assert.Equal(t, 1, s.MismatchCount)
	assert.Equal(t, 1, s.MatchCount)
}

func TestGetDiscrepancySummary_IgnoredFieldTurnsMismatchIntoMatch(t *testing.T) {
	s, err := GetDiscrepancySummary(fixtureSource(), fixtureTarget(), SingleKey("id"),
		DiffOptions{Compare: CompareOptions{IgnoreFields: []string{"v"}}})
	require.NoError(t, err)

	assert.Equal(t, 0, s.MismatchCount)
	assert.Equal(t, 2, s.MatchCount)
}

func TestCalculateMatchPercentage(t *testing.T) {
	d, err := FindAllDiscrepancies(fixtureSource(), fixtureTarget(), SingleKey("id"), DiffOptions{})
	require.NoError(t, err)

	// 4 source rows, 2 missing + 1 mismatch -> 1/4 matched.
	assert.InDelta(t, 25.0, CalculateMatchPercentage(d, 4), 1e-9)
}

func TestCalculateMatchPercentage_ZeroSourceRows(t *testing.T) {
	assert.Equal(t, 100.0, CalculateMatchPercentage(&Discrepancies{}, 0))
}

func TestFindDuplicates(t *testing.T) {
	records := []Record{
		{"id": 1},
		{"id": 2},
		{"id": 1},
		{"id": 1},
		{"id": 3},
		{"id": 3},
	}

	dups, err := FindDuplicates(records, SingleKey("id"))
	require.NoError(t, err)
	require.Len(t, dups, 2)
	assert.Equal(t, Duplicate{Key: NewKey(1), Count: 3}, dups[0])
	assert.Equal(t, Duplicate{Key: NewKey(3), Count: 2}, dups[1])
}

func TestFindDuplicates_NoneIsEmpty(t *testing.T) {
	dups, err := FindDuplicates(fixtureSource(), SingleKey("id"))
	require.NoError(t, err)
	assert.Empty(t, dups)
}

func TestFindSchemaDifferences_UnionsAllRows(t *testing.T) {
	source := []Record{
		{"id": 1, "name": "a"},
		{"id": 2, "legacy_flag": true}, // field only on one row
	}
	target := []Record{
		{"id": 1, "name": "a", "synced_at": "now"},
	}

	diff := FindSchemaDifferences(source, target)

	assert.Equal(t, []string{"legacy_flag"}, diff.OnlyInSource)
	assert.Equal(t, []string{"synced_at"}, diff.OnlyInTarget)
	assert.Equal(t, []string{"id", "name"}, diff.CommonFields)
}

func TestFindSchemaDifferences_BothEmpty(t *testing.T) {
	diff := FindSchemaDifferences(nil, nil)
	assert.Empty(t, diff.OnlyInSource)
	assert.Empty(t, diff.OnlyInTarget)
	assert.Empty(t, diff.CommonFields)
}

func TestGetRowByKey(t *testing.T) {
	rec, found, err := GetRowByKey(fixtureSource(), SingleKey("id"), NewKey(3))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "c", rec["v"])

	_, found, err = GetRowByKey(fixtureSource(), SingleKey("id"), NewKey(99))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCompositeKeyDiff(t *testing.T) {
	source := []Record{
		{"region": "eu", "id": 1, "v": "x"},
		{"region": "us", "id": 1, "v": "y"},
	}
	target := []Record{
		{"region": "eu", "id": 1, "v": "x"},
	}

	d, err := FindAllDiscrepancies(source, target, KeySpec{"region", "id"}, DiffOptions{})
	require.NoError(t, err)

	require.Len(t, d.Missing, 1)
	assert.Equal(t, "us", d.Missing[0]["region"])
	assert.Empty(t, d.Extra)
	assert.Empty(t, d.Mismatches)
}

// recordKeys extracts the integer id field of each record.
func recordKeys(t *testing.T, records []Record, field string) []int {
	t.Helper()
	keys := make([]int, 0, len(records))
	for _, rec := range records {
		v, ok := rec[field].(int)
		require.True(t, ok, "fixture ids are ints")
		keys = append(keys, v)
	}
	return keys
}
