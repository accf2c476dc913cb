package common

import (
	"html"
	"strings"
)

// SanitizeText strips HTML tags and entity-encodes what is left so free-text
// input can never smuggle markup into a later rendering context.
func SanitizeText(s string) string {
	return html.EscapeString(strings.TrimSpace(stripTags(s)))
}

// stripTags removes anything between '<' and the matching '>'. An unclosed
// '<' drops the remainder of the string.
func stripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
