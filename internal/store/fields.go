package store

import "time"

// Field accessors tolerant of the two shapes a value can arrive in: native
// Go values straight from the adapter, or their JSON forms after a trip
// through the change bus (times as RFC3339 strings, string slices as []any).

// StringField returns fields[key] as a string, or "".
func StringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// BoolField returns fields[key] as a bool, or false.
func BoolField(fields map[string]any, key string) bool {
	b, _ := fields[key].(bool)
	return b
}

// TimeField returns fields[key] as a time, accepting time.Time or an
// RFC3339 string. The zero time means absent or unparseable.
func TimeField(fields map[string]any, key string) time.Time {
	switch t := fields[key].(type) {
	case time.Time:
		return t.UTC()
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}
		}
		return parsed.UTC()
	}
	return time.Time{}
}

// StringSliceField returns fields[key] as a []string, accepting []string
// or []any of strings. Non-string elements are skipped.
func StringSliceField(fields map[string]any, key string) []string {
	switch t := fields[key].(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		var out []string
		for _, v := range t {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// StringMapField returns fields[key] as a map[string]string, accepting
// map[string]string or map[string]any of strings.
func StringMapField(fields map[string]any, key string) map[string]string {
	switch t := fields[key].(type) {
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, v := range t {
			out[k] = v
		}
		return out
	case map[string]any:
		out := make(map[string]string, len(t))
		for k, v := range t {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}
