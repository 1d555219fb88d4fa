package model

import (
	"strconv"
	"time"
)

// Serialize deep-converts a decoded value so it round-trips through JSON
// without loss: 64-bit integers become decimal strings (JSON numbers are
// float64 and cannot represent every int64) and timestamps become RFC 3339
// strings. Maps and slices are walked recursively; everything else passes
// through unchanged. It is total and idempotent: applying it twice yields
// the same result as applying it once.
func Serialize(v interface{}) interface{} {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case []byte:
		return string(x)
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = Serialize(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			out[k] = Serialize(e)
		}
		return out
	case []map[string]interface{}:
		out := make([]map[string]interface{}, len(x))
		for i, m := range x {
			out[i] = Serialize(m).(map[string]interface{})
		}
		return out
	default:
		return v
	}
}

// SerializeRows applies Serialize to every row of a result set.
func SerializeRows(rows []map[string]interface{}) []map[string]interface{} {
	return Serialize(rows).([]map[string]interface{})
}
