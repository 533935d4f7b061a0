// Package sanitize prepares streamed completion text for display on a plain
// CRLF terminal: markdown emphasis and code markers are stripped, a handful
// of HTML entities are decoded and line endings are normalized.
//
// Each fragment is sanitized in isolation. A markup token split across two
// network fragments is not reassembled, so its halves pass through untouched.
package sanitize

import (
	"regexp"
	"strings"
)

// Emphasis is only unwrapped when the wrapped content has no leading or
// trailing whitespace; anything else keeps its literal asterisks.
var (
	boldRe   = regexp.MustCompile(`\*\*([^\s*](?:[^*]*[^\s*])?)\*\*`)
	italicRe = regexp.MustCompile(`\*([^\s*](?:[^*]*[^\s*])?)\*`)
)

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
)

// Fragment sanitizes one streamed text fragment.
func Fragment(s string) string {
	if s == "" {
		return ""
	}

	s = boldRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1")

	s = strings.ReplaceAll(s, "`", "")
	s = strings.ReplaceAll(s, ">", "")

	s = entityReplacer.Replace(s)

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\n", "\r\n")

	return s
}
