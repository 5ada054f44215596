// Package langcode normalizes the language codes participants pick.
package langcode

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Normalize parses a BCP 47 language code and returns its canonical
// lowercase form ("EN" -> "en", "zh-CN" -> "zh-cn"). Unknown or
// malformed codes are rejected so a bad code never poisons a session's
// language list.
func Normalize(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	return strings.ToLower(tag.String()), nil
}

// Contains reports whether list already carries code (case-insensitive).
func Contains(list []string, code string) bool {
	for _, c := range list {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}
