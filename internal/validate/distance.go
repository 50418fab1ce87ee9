package validate

import (
	"regexp"
	"strconv"
	"strings"
)

// LessThanSentinel is reported when the page says "less than" one unit away.
const LessThanSentinel = 1

var (
	distancePhraseRe = regexp.MustCompile(`(?i)miles? away|kilometres? away|kilometers? away|km away`)
	firstNumberRe    = regexp.MustCompile(`\d+`)
	heightRe         = regexp.MustCompile(`(?i)(\d{2,3})\s*cm`)
)

// HasDistancePhrase reports whether text carries a distance unit phrase.
func HasDistancePhrase(text string) bool {
	return distancePhraseRe.MatchString(text)
}

// ParseDistance extracts the distance from text such as "3 miles away".
// "less than" phrasing without a number maps to LessThanSentinel, and so does
// "less than 1 km away". ok is false when no distance phrase is present.
func ParseDistance(text string) (int, bool) {
	if !HasDistancePhrase(text) {
		return 0, false
	}
	if m := firstNumberRe.FindString(text); m != "" {
		n, err := strconv.Atoi(m)
		if err == nil && n >= 0 {
			return n, true
		}
	}
	if strings.Contains(strings.ToLower(text), "less than") {
		return LessThanSentinel, true
	}
	return 0, false
}

// ParseHeightCm extracts a height such as "180 cm".
func ParseHeightCm(text string) (int, bool) {
	m := heightRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
