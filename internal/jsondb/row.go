package jsondb

import "encoding/json"

// Int64 reads an integer field from a row decoded by encoding/json, which
// represents JSON numbers as float64. Id comparisons must be numeric, never
// lexical, so every lookup goes through here.
func Int64(row Row, key string) (int64, bool) {
	switch v := row[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

// ByID returns a predicate matching rows whose "id" field equals id.
func ByID(id int64) Predicate {
	return func(row Row) bool {
		v, ok := Int64(row, "id")
		return ok && v == id
	}
}
