package config

import (
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENV", "PORT", "ALLOWED_ORIGINS", "FRONTEND_URL", "TRANSLATOR"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q", cfg.Environment)
	}
	if cfg.IsProduction() {
		t.Error("development config reports production")
	}
	if cfg.Translator != TranslatorEcho {
		t.Errorf("Translator = %q", cfg.Translator)
	}
	if len(cfg.AllowedOrigins) != 1 {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENV", "Production")
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("TRANSLATOR", "dictionary")

	cfg := Load()
	if !cfg.IsProduction() {
		t.Errorf("Environment = %q, want production", cfg.Environment)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.Translator != TranslatorDictionary {
		t.Errorf("Translator = %q", cfg.Translator)
	}
}

func TestLoadUnknownTranslatorFallsBack(t *testing.T) {
	t.Setenv("TRANSLATOR", "llm")
	if cfg := Load(); cfg.Translator != TranslatorEcho {
		t.Errorf("Translator = %q, want fallback to echo", cfg.Translator)
	}
}
