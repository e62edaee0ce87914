package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength bounds URL paths in log lines.
	MaxPathLength = 500
	// MaxFieldLength bounds general string fields in log lines.
	MaxFieldLength = 2000
)

// SanitizePath prepares a request path for logging: valid UTF-8, no
// control characters, bounded length. Request paths are attacker
// controlled and must not be able to inject log lines.
func SanitizePath(path string) string {
	return SanitizeField(path, MaxPathLength)
}

// SanitizeField prepares an arbitrary string field for logging.
func SanitizeField(s string, maxLen int) string {
	if s == "" {
		return ""
	}
	if maxLen <= 0 {
		maxLen = MaxFieldLength
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' {
			b.WriteRune(r)
		}
	}
	s = b.String()

	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}
