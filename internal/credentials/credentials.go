// Package credentials gathers the cookies and local storage that authenticate a
// browser session, from local browser profiles and from exported files.
package credentials

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/xkilldash9x/tinderscope/api/schemas"
)

// ErrNoCredentials is returned when no source produced any cookie or storage item.
var ErrNoCredentials = errors.New("credentials: nothing found")

// DefaultDomains are the registrable domains whose credentials are collected.
var DefaultDomains = []string{"tinder.com", "gotinder.com"}

// DefaultOrigins are the origins whose local storage is collected.
var DefaultOrigins = []string{"https://tinder.com", "https://gotinder.com"}

// Source produces credential material.
type Source interface {
	Name() string
	Read(ctx context.Context) (schemas.StorageState, error)
}

// NormalizeDomain lowercases a cookie domain and prefixes registrable domains with
// a dot so the cookie applies to every subdomain. Hosts without a registrable
// domain, such as "localhost", are returned unchanged.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	bare := strings.TrimPrefix(d, ".")
	if bare == "" || !strings.Contains(bare, ".") {
		return d
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(bare); err != nil {
		return d
	}
	return "." + bare
}

// InDomains reports whether domain belongs to one of the registrable domains.
func InDomains(domain string, domains []string) bool {
	bare := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
	etld1, err := publicsuffix.EffectiveTLDPlusOne(bare)
	if err != nil {
		return false
	}
	for _, d := range domains {
		if strings.EqualFold(etld1, d) {
			return true
		}
	}
	return false
}
