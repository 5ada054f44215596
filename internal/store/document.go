package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is one stored record. Fields hold the decoded document body;
// ID and Path identify where it came from so callers can write back to it.
type Document struct {
	ID     string         `json:"id"`
	Path   string         `json:"path"`
	Fields map[string]any `json:"fields"`
}

// serverTimestamp is the write-time sentinel; see ServerTimestamp.
type serverTimestamp struct{}

// deleteField is the field-removal sentinel; see DeleteField.
type deleteField struct{}

// ServerTimestamp marks a field to be stamped with the store's clock at
// write time.
var ServerTimestamp = serverTimestamp{}

// DeleteField marks a field for removal in a merge write. Merge writes never
// drop fields implicitly, so this sentinel is the only way a field leaves a
// stored document.
var DeleteField = deleteField{}

// normalizeFields unwraps store-native wrapper types so consumers only ever
// see plain Go values: primitive.DateTime becomes time.Time, bson documents
// become map[string]any, bson arrays become []any.
func normalizeFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC()
	case time.Time:
		return t.UTC()
	case bson.M:
		return normalizeFields(map[string]any(t))
	case map[string]any:
		return normalizeFields(t)
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case primitive.A:
		return normalizeSlice([]any(t))
	case []any:
		return normalizeSlice(t)
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return v
	}
}

func normalizeSlice(in []any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = normalizeValue(v)
	}
	return out
}
