// Package translate defines the opaque translation capability. The real
// translation API lives outside this system; everything here is the
// interface the workflow drives plus small implementations for development
// and tests.
package translate

import (
	"context"
	"strings"
)

// Translator turns input text into a mapping of language code to translated
// text. It may omit languages it cannot translate (partial failure); a
// missing language simply never unlocks for readers of that language. No
// ordering guarantee relative to other calls.
type Translator interface {
	Translate(ctx context.Context, text string, languages []string) (map[string]string, error)
}

// Echo returns the input text for every requested language. Useful in
// development when no translation provider is wired: every message unlocks
// immediately for every reader.
type Echo struct{}

func (Echo) Translate(_ context.Context, text string, languages []string) (map[string]string, error) {
	out := make(map[string]string, len(languages))
	for _, lang := range languages {
		out[lang] = text
	}
	return out, nil
}

// Dictionary translates from a fixed phrase table, keyed by lowercased
// input text then language code. Languages absent from the table are
// omitted from the result, which exercises the workflow's partial-failure
// path.
type Dictionary struct {
	Entries map[string]map[string]string
}

// DemoEntries is a small built-in phrase table for demos and tests.
var DemoEntries = map[string]map[string]string{
	"hello": {
		"en": "hello",
		"es": "hola",
		"fr": "bonjour",
		"zh": "你好",
	},
	"goodbye": {
		"en": "goodbye",
		"es": "adiós",
		"fr": "au revoir",
		"zh": "再见",
	},
}

func (d Dictionary) Translate(_ context.Context, text string, languages []string) (map[string]string, error) {
	byLang := d.Entries[strings.ToLower(strings.TrimSpace(text))]
	out := map[string]string{}
	for _, lang := range languages {
		if t, ok := byLang[lang]; ok {
			out[lang] = t
		}
	}
	return out, nil
}
