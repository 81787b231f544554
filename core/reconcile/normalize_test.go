package reconcile

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalize_Idempotence verifies normalize(normalize(v)) == normalize(v)
// across the supported type set.
func TestNormalize_Idempotence(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	values := []any{
		nil,
		true,
		int(7),
		int32(7),
		uint8(200),
		int64(42),
		float32(1.5),
		3.14159,
		"plain text",
		uuid.MustParse("6BA7B810-9DAD-11D1-80B4-00C04FD430C8"),
		decimal.RequireFromString("19.990"),
		time.Date(2024, 3, 1, 12, 0, 0, 0, berlin),
		time.Duration(90 * time.Second),
		[]byte{0xde, 0xad},
		[]any{int(1), "a", nil},
		map[string]any{"nested": decimal.RequireFromString("5.00"), "list": []any{float32(2)}},
	}

	for _, v := range values {
		once := Normalize(v)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "normalize must be idempotent for %T", v)
	}
}

func TestNormalize_UUIDCanonicalForm(t *testing.T) {
	id := uuid.MustParse("6BA7B810-9DAD-11D1-80B4-00C04FD430C8")
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", Normalize(id))
}

func TestNormalize_DecimalStripsTrailingZeros(t *testing.T) {
	a := Normalize(decimal.RequireFromString("19.990"))
	b := Normalize(decimal.RequireFromString("19.99"))
	assert.Equal(t, a, b)

	// Zero reduces to a single canonical form regardless of exponent.
	z1 := Normalize(decimal.RequireFromString("0.000"))
	z2 := Normalize(decimal.RequireFromString("0"))
	assert.Equal(t, z1, z2)
}

func TestNormalize_TimestampKeepsInstant(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	zoned := time.Date(2024, 3, 1, 13, 0, 0, 0, berlin)
	normalized := Normalize(zoned).(time.Time)

	assert.True(t, normalized.Equal(zoned), "instant must not change")
	assert.Equal(t, time.UTC, normalized.Location())
}

func TestNormalize_IntWidthsCollapse(t *testing.T) {
	assert.Equal(t, int64(5), Normalize(int(5)))
	assert.Equal(t, int64(5), Normalize(int16(5)))
	assert.Equal(t, int64(5), Normalize(uint32(5)))
	assert.Equal(t, float64(2.5), Normalize(float32(2.5)))
}

func TestNormalize_NestedContainers(t *testing.T) {
	in := map[string]any{
		"ids":  []any{uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
		"deep": map[string]any{"n": int32(1)},
	}
	out := Normalize(in).(map[string]any)

	assert.Equal(t, []any{"6ba7b810-9dad-11d1-80b4-00c04fd430c8"}, out["ids"])
	assert.Equal(t, map[string]any{"n": int64(1)}, out["deep"])
}

func TestNormalizeRecord_KeysUntouched(t *testing.T) {
	rec := Record{"MiXeD": int8(1), "other": nil}
	out := NormalizeRecord(rec)

	assert.Contains(t, out, "MiXeD")
	assert.Equal(t, int64(1), out["MiXeD"])
	assert.Nil(t, out["other"])
}
