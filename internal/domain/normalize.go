package domain

import (
	"strings"
)

// NormalizeText prepares text for sort keys and search matching:
//   - trims leading/trailing whitespace
//   - converts to lowercase
//   - compresses runs of whitespace into one space
func NormalizeText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if prevSpace {
				continue
			}
			prevSpace = true
			b.WriteRune(' ')
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// SearchText joins the non-empty normalized parts with newlines.
// A substring match against the result never spans two parts.
func SearchText(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := NormalizeText(p); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, "\n")
}

// MatchesQuery reports whether the normalized query is a substring of text.
// An empty query matches everything.
func MatchesQuery(text, query string) bool {
	q := NormalizeText(query)
	if q == "" {
		return true
	}
	return strings.Contains(text, q)
}

func trimmed(s string) string { return strings.TrimSpace(s) }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
