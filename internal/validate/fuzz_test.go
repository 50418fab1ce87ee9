package validate

import (
	"strings"
	"testing"
	"unicode"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
)

func FuzzIsValidName(f *testing.F) {
	f.Add([]byte("Alex"))
	f.Add([]byte("Super Like 2"))

	f.Fuzz(func(t *testing.T, data []byte) {
		c := fuzz.NewConsumer(data)
		s, err := c.GetString()
		if err != nil {
			return
		}
		if !IsValidName(s) {
			return
		}
		for _, r := range s {
			if unicode.IsDigit(r) {
				t.Fatalf("accepted name with digit: %q", s)
			}
		}
		lower := strings.ToLower(s)
		for _, token := range DenylistedTokens() {
			if strings.Contains(lower, token) {
				t.Fatalf("accepted denylisted name: %q", s)
			}
		}
	})
}
