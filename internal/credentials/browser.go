package credentials

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // registers every supported browser store
	"github.com/browserutils/kooky/browser/firefox"
	homedir "github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tinderscope/api/schemas"
)

// DefaultFirefoxProfileGlobs match the profile directories of Firefox and Firefox
// Developer Edition on Linux, macOS and Windows.
var DefaultFirefoxProfileGlobs = []string{
	"~/.mozilla/firefox/*",
	"~/.mozilla/firefox-developer-edition/*",
	"~/Library/Application Support/Firefox/Profiles/*",
	"~/Library/Application Support/Firefox Developer Edition/Profiles/*",
	"~/AppData/Roaming/Mozilla/Firefox/Profiles/*",
	"~/AppData/Roaming/Mozilla/Firefox Developer Edition/Profiles/*",
}

type (
	fileReader  func(ctx context.Context, path string, filters ...kooky.Filter) ([]*kooky.Cookie, error)
	storeReader func(ctx context.Context, filters ...kooky.Filter) ([]*kooky.Cookie, error)
)

// BrowserSource reads cookies from local browser cookie stores.
type BrowserSource struct {
	// FirefoxOnly skips the generic browser store scan.
	FirefoxOnly bool

	domains      []string
	profileGlobs []string
	logger       *zap.Logger

	readFirefox fileReader
	readAll     storeReader
}

// NewBrowserSource creates a source for domains. Firefox profiles matching
// profileGlobs are tried first, then every browser kooky can find.
func NewBrowserSource(domains, profileGlobs []string, logger *zap.Logger) *BrowserSource {
	if len(domains) == 0 {
		domains = DefaultDomains
	}
	if len(profileGlobs) == 0 {
		profileGlobs = DefaultFirefoxProfileGlobs
	}
	return &BrowserSource{
		domains:      domains,
		profileGlobs: profileGlobs,
		logger:       logger.Named("browser_cookies"),
		readFirefox:  firefox.ReadCookies,
		readAll:      kooky.ReadCookies,
	}
}

func (s *BrowserSource) Name() string { return "browser" }

// Read returns the valid cookies of every configured domain.
func (s *BrowserSource) Read(ctx context.Context) (schemas.StorageState, error) {
	var state schemas.StorageState
	for _, domain := range s.domains {
		kookies := s.firefoxCookies(ctx, domain)
		if len(kookies) == 0 && !s.FirefoxOnly {
			var err error
			kookies, err = s.readAll(ctx, kooky.Valid, kooky.DomainHasSuffix(domain))
			if err != nil {
				s.logger.Debug("Failed to read browser cookie stores.", zap.String("domain", domain), zap.Error(err))
				continue
			}
		}
		for _, k := range kookies {
			state.Cookies = append(state.Cookies, fromKooky(k))
		}
	}
	return state, nil
}

// FirefoxProfiles expands the profile globs into existing profile directories.
func FirefoxProfiles(globs []string) []string {
	var out []string
	for _, g := range globs {
		expanded, err := homedir.Expand(g)
		if err != nil {
			continue
		}
		matches, err := filepath.Glob(expanded)
		if err != nil {
			continue
		}
		out = append(out, matches...)
	}
	return out
}

func (s *BrowserSource) firefoxCookies(ctx context.Context, domain string) []*kooky.Cookie {
	for _, profile := range FirefoxProfiles(s.profileGlobs) {
		path := filepath.Join(profile, "cookies.sqlite")
		kookies, err := s.readFirefox(ctx, path, kooky.Valid, kooky.DomainHasSuffix(domain))
		if err != nil || len(kookies) == 0 {
			continue
		}
		s.logger.Debug("Found Firefox cookies.",
			zap.String("profile", filepath.Base(profile)),
			zap.String("domain", domain),
			zap.Int("count", len(kookies)))
		return kookies
	}
	return nil
}

func fromKooky(k *kooky.Cookie) schemas.Cookie {
	c := schemas.Cookie{
		Name:     k.Name,
		Value:    k.Value,
		Domain:   k.Domain,
		Path:     k.Path,
		Secure:   k.Secure,
		HTTPOnly: k.HttpOnly,
	}
	if !k.Expires.IsZero() {
		exp := k.Expires.Unix()
		c.Expiry = &exp
	}
	switch k.SameSite {
	case http.SameSiteStrictMode:
		c.SameSite = schemas.CookieSameSiteStrict
	case http.SameSiteLaxMode:
		c.SameSite = schemas.CookieSameSiteLax
	case http.SameSiteNoneMode:
		c.SameSite = schemas.CookieSameSiteNone
	}
	return c
}
