package schemas

import (
	"strings"
	"time"
)

// -- Browser Credential Schemas --

// CookieSameSite defines the SameSite attribute for cookies.
type CookieSameSite string

const (
	CookieSameSiteStrict CookieSameSite = "Strict"
	CookieSameSiteLax    CookieSameSite = "Lax"
	CookieSameSiteNone   CookieSameSite = "None"
)

// Cookie is a single browser cookie as read from a local browser store or a cookie file.
// Expiry is seconds since the Unix epoch; nil marks a session cookie.
type Cookie struct {
	Name     string         `json:"name"`
	Value    string         `json:"value"`
	Domain   string         `json:"domain"`
	Path     string         `json:"path"`
	Expiry   *int64         `json:"expiry"`
	Secure   bool           `json:"secure"`
	HTTPOnly bool           `json:"httpOnly"`
	SameSite CookieSameSite `json:"sameSite,omitempty"`
}

// ExpiresAt converts the expiry to a time. ok is false for session cookies.
func (c Cookie) ExpiresAt() (t time.Time, ok bool) {
	if c.Expiry == nil || *c.Expiry <= 0 {
		return time.Time{}, false
	}
	return time.Unix(*c.Expiry, 0).UTC(), true
}

// Key identifies a cookie for de-duplication.
func (c Cookie) Key() string {
	path := c.Path
	if path == "" {
		path = "/"
	}
	return strings.ToLower(c.Domain) + "|" + path + "|" + c.Name
}

// NormalizedSameSite maps missing or unknown SameSite values to None.
func (c Cookie) NormalizedSameSite() CookieSameSite {
	switch strings.ToLower(string(c.SameSite)) {
	case "strict":
		return CookieSameSiteStrict
	case "lax":
		return CookieSameSiteLax
	default:
		return CookieSameSiteNone
	}
}

// StorageState is the credential material used to authenticate a browser session.
// LocalStorage is keyed by origin (e.g. "https://tinder.com").
type StorageState struct {
	Cookies      []Cookie                     `json:"cookies"`
	LocalStorage map[string]map[string]string `json:"local_storage"`
}

// Empty reports whether the state carries no credentials at all.
func (s StorageState) Empty() bool {
	if len(s.Cookies) > 0 {
		return false
	}
	for _, items := range s.LocalStorage {
		if len(items) > 0 {
			return false
		}
	}
	return true
}
