// Package attrs reads values back out of slog-style key/value lists so one
// attribute slice can feed both the logger and the audit event.
package attrs

import "slices"

// String returns the string stored under key in a [k1, v1, k2, v2, ...]
// list. Non-string keys or values, a dangling key and a missing key all
// yield "". The last occurrence wins.
func String(kv []any, key string) string {
	found := ""
	for pair := range slices.Chunk(kv, 2) {
		if len(pair) < 2 {
			break
		}
		if k, ok := pair[0].(string); !ok || k != key {
			continue
		}
		if v, ok := pair[1].(string); ok {
			found = v
		}
	}
	return found
}
