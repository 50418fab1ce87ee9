// Package auth turns collected credentials into an authenticated browser session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/xkilldash9x/tinderscope/api/schemas"
	"github.com/xkilldash9x/tinderscope/internal/credentials"
	"github.com/xkilldash9x/tinderscope/internal/wait"
)

// ErrNotLoggedIn is returned when the session did not reach the application after
// the credentials were installed.
var ErrNotLoggedIn = errors.New("auth: session is not logged in")

// Status classifies the page reached after installing credentials.
type Status string

const (
	StatusLoggedIn           Status = "logged_in"
	StatusChallengeSuspected Status = "challenge_suspected"
	StatusLoginPage          Status = "login_page"
	StatusUnknown            Status = "unknown"
)

const (
	inspectPrefix = 1000
	appMarker     = "tinder.com/app/"
)

var (
	challengeWords = []string{"verify", "verification", "puzzle", "captcha"}
	loginWords     = []string{"log in", "login", "sign in"}
)

// Config controls the bootstrap sequence.
type Config struct {
	LandingURL     string
	NavigateSettle time.Duration
	ReloadSettle   time.Duration
	Clock          wait.Clock
}

// DefaultConfig returns the standard landing page and settle delays.
func DefaultConfig() Config {
	return Config{
		LandingURL:     "https://www.tinder.com/?lang=en",
		NavigateSettle: 3 * time.Second,
		ReloadSettle:   5 * time.Second,
		Clock:          wait.RealClock,
	}
}

// LoginError carries the status observed when a login did not succeed.
type LoginError struct {
	Status Status
	URL    string
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("auth: not logged in (status %s, url %s)", e.Status, e.URL)
}

func (e *LoginError) Unwrap() error { return ErrNotLoggedIn }

// Bootstrapper installs credentials into a page.
type Bootstrapper struct {
	page   schemas.Page
	cfg    Config
	logger *zap.Logger
}

// NewBootstrapper creates a bootstrapper for page.
func NewBootstrapper(page schemas.Page, cfg Config, logger *zap.Logger) *Bootstrapper {
	if cfg.LandingURL == "" {
		cfg.LandingURL = DefaultConfig().LandingURL
	}
	if cfg.Clock == nil {
		cfg.Clock = wait.RealClock
	}
	return &Bootstrapper{page: page, cfg: cfg, logger: logger.Named("auth")}
}

// Login navigates to the landing page, injects creds, reloads and reports where the
// session ended up. A status other than StatusLoggedIn comes with an error wrapping
// ErrNotLoggedIn. Challenges are reported, never solved.
func (b *Bootstrapper) Login(ctx context.Context, creds schemas.StorageState) (Status, error) {
	if err := b.page.Navigate(ctx, b.cfg.LandingURL); err != nil {
		return StatusUnknown, fmt.Errorf("auth: navigate to landing page: %w", err)
	}
	if err := wait.Sleep(ctx, b.cfg.Clock, b.cfg.NavigateSettle); err != nil {
		return StatusUnknown, err
	}

	injected := b.injectCookies(ctx, creds.Cookies)
	b.logger.Info("Injected cookies.", zap.Int("count", injected), zap.Int("total", len(creds.Cookies)))

	if err := b.injectLocalStorage(ctx, creds.LocalStorage); err != nil {
		b.logger.Warn("Failed to write local storage.", zap.Error(err))
	}

	if err := b.page.Reload(ctx); err != nil {
		return StatusUnknown, fmt.Errorf("auth: reload after injecting credentials: %w", err)
	}
	if err := wait.Sleep(ctx, b.cfg.Clock, b.cfg.ReloadSettle); err != nil {
		return StatusUnknown, err
	}

	status, current, err := b.Inspect(ctx)
	if err != nil {
		return StatusUnknown, err
	}
	if status != StatusLoggedIn {
		return status, &LoginError{Status: status, URL: current}
	}
	b.logger.Info("Session logged in.", zap.String("url", current))
	return status, nil
}

// Inspect classifies the current page without changing it.
func (b *Bootstrapper) Inspect(ctx context.Context) (Status, string, error) {
	current, err := b.page.Location(ctx)
	if err != nil {
		return StatusUnknown, "", fmt.Errorf("auth: read location: %w", err)
	}
	markup, err := b.page.HTML(ctx)
	if err != nil {
		return StatusUnknown, current, fmt.Errorf("auth: read page: %w", err)
	}
	status := Classify(current, markup)
	switch status {
	case StatusChallengeSuspected:
		b.logger.Warn("Page suggests a verification challenge. Complete it manually in a regular browser first.", zap.String("url", current))
	case StatusLoginPage:
		b.logger.Warn("Still on the login page. The cookies do not authenticate a session.", zap.String("url", current))
	}
	return status, current, nil
}

// Classify decides the status from the current URL and the leading markup. The
// URL decides login; the markup only explains a failure.
func Classify(currentURL, markup string) Status {
	if strings.Contains(currentURL, appMarker) {
		return StatusLoggedIn
	}
	head := markup
	if len(head) > inspectPrefix {
		head = head[:inspectPrefix]
	}
	head = strings.ToLower(head)
	switch {
	case containsAny(head, challengeWords):
		return StatusChallengeSuspected
	case containsAny(head, loginWords):
		return StatusLoginPage
	default:
		return StatusUnknown
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// injectCookies installs cookies one at a time so a rejected cookie does not
// drop the rest. It returns how many were accepted.
func (b *Bootstrapper) injectCookies(ctx context.Context, cookies []schemas.Cookie) int {
	injected := 0
	for _, c := range cookies {
		c = PrepareCookie(c)
		if err := b.page.SetCookies(ctx, []schemas.Cookie{c}); err != nil {
			b.logger.Debug("Cookie rejected.", zap.String("name", c.Name), zap.Error(err))
			continue
		}
		injected++
	}
	return injected
}

// PrepareCookie applies the browser's injection rules: SameSite defaults to None,
// non-positive expiry becomes a session cookie, and registrable domains are dot-prefixed.
func PrepareCookie(c schemas.Cookie) schemas.Cookie {
	c.SameSite = c.NormalizedSameSite()
	if c.Expiry != nil && *c.Expiry <= 0 {
		c.Expiry = nil
	}
	c.Domain = credentials.NormalizeDomain(c.Domain)
	if c.Path == "" {
		c.Path = "/"
	}
	return c
}

// injectLocalStorage writes the items that belong to the current document's origin.
// Items stored under a sibling origin of the same site are written too.
func (b *Bootstrapper) injectLocalStorage(ctx context.Context, storage map[string]map[string]string) error {
	if len(storage) == 0 {
		return nil
	}
	current, err := b.page.Location(ctx)
	if err != nil {
		return err
	}
	origin, items := ItemsForOrigin(current, storage)
	if len(items) == 0 {
		return nil
	}
	if err := b.page.SetLocalStorage(ctx, origin, items); err != nil {
		return err
	}
	b.logger.Info("Wrote local storage.", zap.String("origin", origin), zap.Int("items", len(items)))
	return nil
}

// ItemsForOrigin returns the origin of pageURL and the storage items to write there.
// Exact origin matches take precedence over items from other hosts of the same site.
func ItemsForOrigin(pageURL string, storage map[string]map[string]string) (string, map[string]string) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return "", nil
	}
	origin := u.Scheme + "://" + u.Host
	items := make(map[string]string)
	for k, v := range storage[origin] {
		items[k] = v
	}
	site, err := publicsuffix.EffectiveTLDPlusOne(u.Hostname())
	if err != nil {
		return origin, items
	}
	others := make([]string, 0, len(storage))
	for o := range storage {
		if o != origin {
			others = append(others, o)
		}
	}
	sort.Strings(others)
	for _, o := range others {
		ou, err := url.Parse(o)
		if err != nil || !credentials.InDomains(ou.Hostname(), []string{site}) {
			continue
		}
		for k, v := range storage[o] {
			if _, ok := items[k]; !ok {
				items[k] = v
			}
		}
	}
	return origin, items
}
