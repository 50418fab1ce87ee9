// Package validate holds the pure predicates every extractor uses to reject
// interface chrome and other false positives.
package validate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// nameDenylist is matched as a lowercase substring. These are labels of buttons and
// banners that sit next to the name in the rendered card.
var nameDenylist = []string{
	"rewind",
	"super like",
	"superlike",
	"boost",
	"upgrade",
	"passport",
	"tinder",
	"like",
	"nope",
	"report",
	"block",
}

// IsValidName reports whether s is a plausible person name.
func IsValidName(s string) bool {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < 2 {
		return false
	}
	for _, r := range s {
		if unicode.IsDigit(r) {
			return false
		}
	}
	lower := strings.ToLower(s)
	for _, token := range nameDenylist {
		if strings.Contains(lower, token) {
			return false
		}
	}
	return true
}

// DenylistedTokens returns a copy of the interface-chrome tokens rejected by IsValidName.
func DenylistedTokens() []string {
	return append([]string(nil), nameDenylist...)
}

// NormalizeSpace lowercases s and collapses runs of whitespace to one space.
func NormalizeSpace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// FirstLine returns the first non-empty trimmed line of s.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
