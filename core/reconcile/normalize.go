package reconcile

import (
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Normalize canonicalizes a value so that two representations of the same
// logical datum compare equal:
//
//   - uuid.UUID becomes its canonical lowercase hyphenated string form
//   - decimal.Decimal is reduced to its minimal representation, so
//     19.990 and 19.99 normalize identically
//   - time.Time is converted to UTC without changing the instant
//   - integer widths collapse to int64, float32 widens to float64
//   - lists and maps are normalized recursively
//
// All other values pass through unchanged. Normalize is pure and
// idempotent: Normalize(Normalize(v)) == Normalize(v).
func Normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case uuid.UUID:
		return val.String()
	case decimal.Decimal:
		return reduceDecimal(val)
	case time.Time:
		return val.UTC()
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		if uint64(val) <= math.MaxInt64 {
			return int64(val)
		}
		return val
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		if val <= math.MaxInt64 {
			return int64(val)
		}
		return val
	case float32:
		return float64(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Normalize(item)
		}
		return out
	default:
		return v
	}
}

// NormalizeRecord normalizes every value of a record. Field names are left
// untouched.
func NormalizeRecord(rec Record) Record {
	normalized := make(Record, len(rec))
	for field, value := range rec {
		normalized[field] = Normalize(value)
	}
	return normalized
}

// reduceDecimal strips insignificant trailing zeros from the coefficient,
// yielding the minimal representation of the magnitude. Equivalent to the
// arbitrary-precision "normalize" operation: 19.990 reduces to 19.99 and
// 1900 reduces to 19e2.
func reduceDecimal(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.New(0, 0)
	}

	coeff := new(big.Int).Set(d.Coefficient())
	exp := d.Exponent()
	ten := big.NewInt(10)

	q := new(big.Int)
	r := new(big.Int)
	for {
		q.QuoRem(coeff, ten, r)
		if r.Sign() != 0 {
			break
		}
		coeff.Set(q)
		exp++
	}

	return decimal.NewFromBigInt(coeff, exp)
}
