package store

import (
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestResolveTimestamps(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fields := map[string]any{
		"createdAt": ServerTimestamp,
		"text":      "hi",
		"nested": map[string]any{
			"updatedAt": ServerTimestamp,
		},
	}

	got := resolveTimestamps(fields, now)
	if got["createdAt"] != now {
		t.Errorf("createdAt = %v", got["createdAt"])
	}
	if got["text"] != "hi" {
		t.Errorf("text = %v", got["text"])
	}
	nested := got["nested"].(map[string]any)
	if nested["updatedAt"] != now {
		t.Errorf("nested updatedAt = %v", nested["updatedAt"])
	}

	// Original map untouched.
	if fields["createdAt"] != ServerTimestamp {
		t.Error("input mutated")
	}
}

func TestFlattenMerge(t *testing.T) {
	set, unset := flattenMerge(map[string]any{
		"text": "hi",
		"translated": map[string]any{
			"en": "hi",
			"fr": "salut",
		},
		"stale":     DeleteField,
		"languages": []string{"en", "fr"},
	})

	wantSet := bson.M{
		"text":          "hi",
		"translated.en": "hi",
		"translated.fr": "salut",
		"languages":     []string{"en", "fr"},
	}
	if !reflect.DeepEqual(set, wantSet) {
		t.Errorf("set = %v, want %v", set, wantSet)
	}
	if !reflect.DeepEqual(unset, bson.M{"stale": ""}) {
		t.Errorf("unset = %v", unset)
	}
}

func TestFlattenMergeNestedDelete(t *testing.T) {
	set, unset := flattenMerge(map[string]any{
		"meta": map[string]any{
			"keep": 1,
			"drop": DeleteField,
		},
	})
	if !reflect.DeepEqual(set, bson.M{"meta.keep": 1}) {
		t.Errorf("set = %v", set)
	}
	if !reflect.DeepEqual(unset, bson.M{"meta.drop": ""}) {
		t.Errorf("unset = %v", unset)
	}
}

func TestFlattenMergeEmptyMapKept(t *testing.T) {
	set, _ := flattenMerge(map[string]any{"empty": map[string]any{}})
	if !reflect.DeepEqual(set, bson.M{"empty": bson.M{}}) {
		t.Errorf("set = %v", set)
	}
}

func TestNormalizeFields(t *testing.T) {
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	raw := map[string]any{
		"createdAt": primitive.NewDateTimeFromTime(when),
		"nested":    bson.M{"updatedAt": primitive.NewDateTimeFromTime(when)},
		"langs":     primitive.A{"en", "fr"},
		"text":      "hi",
	}

	got := normalizeFields(raw)
	if !got["createdAt"].(time.Time).Equal(when) {
		t.Errorf("createdAt = %v", got["createdAt"])
	}
	nested := got["nested"].(map[string]any)
	if !nested["updatedAt"].(time.Time).Equal(when) {
		t.Errorf("nested updatedAt = %v", nested["updatedAt"])
	}
	if !reflect.DeepEqual(got["langs"], []any{"en", "fr"}) {
		t.Errorf("langs = %v", got["langs"])
	}
	if got["text"] != "hi" {
		t.Errorf("text = %v", got["text"])
	}
}

func TestDocFromRaw(t *testing.T) {
	doc := docFromRaw(bson.M{
		keyID:     "users/u1/sessions/s1",
		keyParent: "users/u1/sessions",
		"email":   "a@b.c",
	})
	if doc.Path != "users/u1/sessions/s1" {
		t.Errorf("path = %q", doc.Path)
	}
	if doc.ID != "s1" {
		t.Errorf("id = %q", doc.ID)
	}
	if _, ok := doc.Fields[keyParent]; ok {
		t.Error("reserved key leaked into fields")
	}
	if doc.Fields["email"] != "a@b.c" {
		t.Errorf("email = %v", doc.Fields["email"])
	}
}
