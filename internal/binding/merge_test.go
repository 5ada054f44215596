package binding

import (
	"reflect"
	"testing"
)

func TestMergeFieldsDeepMerge(t *testing.T) {
	dst := map[string]any{
		"text": "hi",
		"meta": map[string]any{
			"a": 1,
			"b": 2,
		},
	}
	src := map[string]any{
		"meta": map[string]any{
			"b": 3,
			"c": 4,
		},
	}

	got := mergeFields(dst, src)
	want := map[string]any{
		"text": "hi",
		"meta": map[string]any{
			"a": 1,
			"b": 3,
			"c": 4,
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("merged = %v, want %v", got, want)
	}
}

func TestMergeFieldsArraysReplaceWholesale(t *testing.T) {
	dst := map[string]any{"langs": []any{"en", "es", "fr"}}
	src := map[string]any{"langs": []any{"zh"}}

	got := mergeFields(dst, src)
	if !reflect.DeepEqual(got["langs"], []any{"zh"}) {
		t.Errorf("langs = %v, want [zh]", got["langs"])
	}
}

func TestMergeFieldsScalarReplacesMap(t *testing.T) {
	dst := map[string]any{"v": map[string]any{"x": 1}}
	src := map[string]any{"v": "flat"}

	got := mergeFields(dst, src)
	if got["v"] != "flat" {
		t.Errorf("v = %v", got["v"])
	}
}

func TestMergeFieldsDoesNotMutateInputs(t *testing.T) {
	dst := map[string]any{"meta": map[string]any{"a": 1}}
	src := map[string]any{"meta": map[string]any{"b": 2}}

	got := mergeFields(dst, src)
	got["meta"].(map[string]any)["a"] = 99

	if dst["meta"].(map[string]any)["a"] != 1 {
		t.Error("dst mutated through merge result")
	}
	if _, ok := src["meta"].(map[string]any)["a"]; ok {
		t.Error("src mutated")
	}
}

func TestMergeFieldsNilDst(t *testing.T) {
	got := mergeFields(nil, map[string]any{"a": 1})
	if got["a"] != 1 {
		t.Errorf("a = %v", got["a"])
	}
}
