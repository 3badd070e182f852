// Package conv reads values out of node config maps (YAML or JSON decoded into map[string]any).
package conv

import "math"

// ConfigGet returns m[key] as T, or defaultVal when the key is missing or has another type.
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	t, ok := v.(T)
	if !ok {
		return defaultVal
	}
	return t
}

// ConfigGetInt returns m[key] as int. YAML decodes integers as int and JSON as float64;
// both are accepted, but a float with a fraction is not an int and yields defaultVal.
func ConfigGetInt(m map[string]any, key string, defaultVal int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	}
	return defaultVal
}
