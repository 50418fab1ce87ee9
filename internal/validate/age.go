package validate

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	MinAge = 18
	MaxAge = 59
)

var (
	ageTokenRe = regexp.MustCompile(`\b(1[8-9]|[2-5]\d)\b`)
	// ariaNameAgeRe splits an accessible label like "Sam 27 years" into name and age.
	ariaNameAgeRe = regexp.MustCompile(`^([^0-9]+?)\s*(\d+|years|year)`)
)

// IsValidAge reports whether age falls inside the accepted range.
func IsValidAge(age int) bool {
	return age >= MinAge && age <= MaxAge
}

// ParseAge parses s as an integer age and validates it.
func ParseAge(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !IsValidAge(n) {
		return 0, false
	}
	return n, true
}

// FindAgeToken returns the first plausible age token in text.
func FindAgeToken(text string) (int, bool) {
	m := ageTokenRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return ParseAge(m[1])
}

// AgeAfterName looks for a two digit token directly following name in text,
// allowing an optional comma ("Sam, 27").
func AgeAfterName(text, name string) (int, bool) {
	if strings.TrimSpace(name) == "" {
		return 0, false
	}
	re, err := regexp.Compile(regexp.QuoteMeta(strings.TrimSpace(name)) + `\s*,?\s*(\d{2})`)
	if err != nil {
		return 0, false
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return ParseAge(m[1])
}

// SplitAriaLabel splits an accessible heading label into its name and, when the
// trailing token is numeric, its age.
func SplitAriaLabel(label string) (name string, age int, ok bool) {
	m := ariaNameAgeRe.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return "", 0, false
	}
	name = strings.TrimSpace(strings.TrimRight(m[1], ", "))
	if n, err := strconv.Atoi(m[2]); err == nil {
		age = n
	}
	return name, age, true
}
