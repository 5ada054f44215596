package models

import (
	"testing"

	"github.com/babelchat/backend/internal/store"
)

func TestPathHelpers(t *testing.T) {
	if got := MessagePath("u1", "s1", "m1"); got != "users/u1/sessions/s1/messages/m1" {
		t.Errorf("MessagePath = %q", got)
	}
	if got := SessionsPath("u1"); got != "users/u1/sessions" {
		t.Errorf("SessionsPath = %q", got)
	}
	if got := TranslationPath(TranslationKey("u1", "s1", "m1")); got != "translations/u1_s1_m1" {
		t.Errorf("TranslationPath = %q", got)
	}
}

func TestPatternsMatchHelperPaths(t *testing.T) {
	params, ok := store.MatchPath(MessagePattern, MessagePath("u1", "s1", "m1"))
	if !ok {
		t.Fatal("message pattern does not match its own path helper")
	}
	if params["uid"] != "u1" || params["sessionId"] != "s1" || params["messageId"] != "m1" {
		t.Errorf("params = %v", params)
	}

	params, ok = store.MatchPath(TranslationPattern, TranslationPath("u1_s1_m1"))
	if !ok {
		t.Fatal("translation pattern does not match its own path helper")
	}
	if params["translationId"] != "u1_s1_m1" {
		t.Errorf("params = %v", params)
	}
}

func TestTranslationRequestFromBusFields(t *testing.T) {
	// Field shapes as they arrive after a JSON trip through the change bus.
	req := TranslationRequestFromFields("u1_s1_m1", map[string]any{
		"input":      "hello",
		"uid":        "u1",
		"sessionId":  "s1",
		"messageId":  "m1",
		"languages":  []any{"en", "es"},
		"translated": map[string]any{"es": "hola"},
	})
	if req.Input != "hello" || req.UID != "u1" {
		t.Errorf("req = %+v", req)
	}
	if len(req.Languages) != 2 || req.Languages[1] != "es" {
		t.Errorf("languages = %v", req.Languages)
	}
	if req.Translated["es"] != "hola" {
		t.Errorf("translated = %v", req.Translated)
	}
	if req.MessagePath() != "users/u1/sessions/s1/messages/m1" {
		t.Errorf("MessagePath = %q", req.MessagePath())
	}
}
