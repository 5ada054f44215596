package store

import (
	"fmt"
	"strings"
)

// Paths address documents and collections the same way the URL bar does:
// "users/u1/sessions/s1/messages/m1". Segments alternate collection and
// document id, so an odd segment count is a collection path and an even
// count is a document path.

// SplitPath cleans a slash path and returns its segments.
func SplitPath(path string) []string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return nil
	}
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// JoinPath joins segments back into a canonical path.
func JoinPath(segs ...string) string {
	return strings.Join(segs, "/")
}

// IsDocPath reports whether path addresses a single document.
func IsDocPath(path string) bool {
	n := len(SplitPath(path))
	return n > 0 && n%2 == 0
}

// IsCollectionPath reports whether path addresses a collection.
func IsCollectionPath(path string) bool {
	return len(SplitPath(path))%2 == 1
}

// CollectionKey reduces a path to its collection lineage, e.g.
// "users/u1/sessions/s1/messages" -> "users_sessions_messages". Documents of
// the same lineage share one backing collection regardless of parent, which
// is what makes collection-group queries a plain unfiltered find.
func CollectionKey(path string) (string, error) {
	segs := SplitPath(path)
	if len(segs) == 0 {
		return "", fmt.Errorf("empty path")
	}
	var cols []string
	for i := 0; i < len(segs); i += 2 {
		cols = append(cols, segs[i])
	}
	return strings.Join(cols, "_"), nil
}

// ParentPath returns the collection path that contains the given document,
// e.g. "users/u1/sessions/s1" -> "users/u1/sessions".
func ParentPath(docPath string) (string, error) {
	segs := SplitPath(docPath)
	if len(segs) < 2 || len(segs)%2 != 0 {
		return "", fmt.Errorf("not a document path: %q", docPath)
	}
	return JoinPath(segs[:len(segs)-1]...), nil
}

// DocID returns the last segment of a document path.
func DocID(docPath string) string {
	segs := SplitPath(docPath)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// MatchPath matches a document path against a pattern whose "{name}"
// segments capture path parameters, e.g.
// MatchPath("translations/{translationId}", "translations/abc")
// -> {"translationId": "abc"}, true.
func MatchPath(pattern, path string) (map[string]string, bool) {
	pSegs := SplitPath(pattern)
	segs := SplitPath(path)
	if len(pSegs) != len(segs) {
		return nil, false
	}
	params := map[string]string{}
	for i, p := range pSegs {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			params[p[1:len(p)-1]] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, false
		}
	}
	return params, true
}
