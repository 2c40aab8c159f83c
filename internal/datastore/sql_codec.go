package datastore

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// timestampKey marks an encoded instant inside the JSON document body.
const timestampKey = "$ts"

func encodeData(data map[string]any) (string, error) {
	b, err := json.Marshal(encodeValue(data))
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

func encodeValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return map[string]any{timestampKey: val.UTC().Format(time.RFC3339Nano)}
	case *time.Time:
		if val == nil {
			return nil
		}
		return encodeValue(*val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = encodeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = encodeValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = encodeValue(item)
		}
		return out
	default:
		return v
	}
}

func decodeData(body string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	out, _ := decodeValue(raw).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func decodeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 1 {
			if s, ok := val[timestampKey].(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					return t.UTC()
				}
			}
		}
		for k, item := range val {
			val[k] = decodeValue(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = decodeValue(item)
		}
		return val
	case json.Number:
		if !strings.ContainsAny(val.String(), ".eE") {
			if n, err := val.Int64(); err == nil {
				return n
			}
		}
		f, _ := val.Float64()
		return f
	default:
		return v
	}
}
