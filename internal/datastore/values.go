package datastore

import (
	"maps"
	"reflect"
	"time"
)

// CloneData deep-copies nested maps and slices so callers cannot alias stored state.
func CloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneData(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneData(item)
		}
		return out
	default:
		return v
	}
}

// ResolveServerTimestamps returns a deep copy of data with every ServerTimestamp
// sentinel replaced by now.
func ResolveServerTimestamps(data map[string]any, now time.Time) map[string]any {
	out := CloneData(data)
	resolveMap(out, now)
	return out
}

func resolveMap(m map[string]any, now time.Time) {
	for k, v := range m {
		m[k] = resolveValue(v, now)
	}
}

func resolveValue(v any, now time.Time) any {
	switch val := v.(type) {
	case serverTimestamp:
		return now
	case map[string]any:
		resolveMap(val, now)
		return val
	case []any:
		for i := range val {
			val[i] = resolveValue(val[i], now)
		}
		return val
	default:
		return v
	}
}

// MergeData deep-merges src into dst the way a merge write does: nested maps are
// merged key by key, every other value replaces the existing one.
func MergeData(dst, src map[string]any) map[string]any {
	out := CloneData(dst)
	if out == nil {
		out = make(map[string]any, len(src))
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = MergeData(dstMap, srcMap)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

// UpdateData applies top-level field updates to a copy of dst.
func UpdateData(dst, fields map[string]any) map[string]any {
	out := CloneData(dst)
	if out == nil {
		out = make(map[string]any, len(fields))
	}
	maps.Copy(out, CloneData(fields))
	return out
}

// ValuesEqual compares two field values, treating numbers of different Go types as equal
// when they hold the same value.
func ValuesEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
