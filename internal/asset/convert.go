package asset

import (
	"encoding/json"
	"strconv"
)

// ToInt64 converts a numeric value to int64. Unsupported types yield 0.
func ToInt64(v interface{}) int64 {
	switch i := v.(type) {
	case int64:
		return i
	case int:
		return int64(i)
	case int32:
		return int64(i)
	case int16:
		return int64(i)
	case int8:
		return int64(i)
	case uint:
		return int64(i)
	case uint64:
		return int64(i)
	case uint32:
		return int64(i)
	case uint16:
		return int64(i)
	case uint8:
		return int64(i)
	case float64:
		return int64(i)
	case float32:
		return int64(i)
	case json.Number:
		if n, err := i.Int64(); err == nil {
			return n
		}
		f, _ := i.Float64()
		return int64(f)
	default:
		return 0
	}
}

// ToFloat64 converts a numeric value to float64. The second result is false
// for non-numeric values.
func ToFloat64(v interface{}) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	case int:
		return float64(f), true
	case int64:
		return float64(f), true
	case int32:
		return float64(f), true
	case int16:
		return float64(f), true
	case int8:
		return float64(f), true
	case uint:
		return float64(f), true
	case uint64:
		return float64(f), true
	case uint32:
		return float64(f), true
	case uint16:
		return float64(f), true
	case uint8:
		return float64(f), true
	case json.Number:
		n, err := strconv.ParseFloat(string(f), 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// IsNumeric reports whether v is one of the types ToFloat64 understands.
func IsNumeric(v interface{}) bool {
	_, ok := ToFloat64(v)
	return ok
}
