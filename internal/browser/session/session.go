// Package session drives one Chrome tab over CDP and exposes it as a schemas.Page.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tinderscope/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config bounds the operations a Session runs.
type Config struct {
	NavigationTimeout time.Duration
	// DragSteps is the number of intermediate mouse moves between press and release.
	DragSteps int
}

// DefaultConfig returns the settings used when a field is left zero.
func DefaultConfig() Config {
	return Config{
		NavigationTimeout: 45 * time.Second,
		DragSteps:         8,
	}
}

// Session is a single browser tab. The tab context carries the CDP target; every
// operation runs on that context combined with the caller's.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	cfg    Config
	logger *zap.Logger

	runActionsFunc func(ctx context.Context, actions ...chromedp.Action) error
	evalFunc       func(ctx context.Context, script string) ([]byte, error)

	closeOnce sync.Once
	onClose   func()
}

var _ schemas.Page = (*Session)(nil)

// New wraps a chromedp tab context. cancel closes the tab.
func New(tabCtx context.Context, cancel context.CancelFunc, cfg Config, logger *zap.Logger) *Session {
	defaults := DefaultConfig()
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaults.NavigationTimeout
	}
	if cfg.DragSteps <= 0 {
		cfg.DragSteps = defaults.DragSteps
	}

	id := uuid.NewString()
	s := &Session{
		id:     id,
		ctx:    tabCtx,
		cancel: cancel,
		cfg:    cfg,
		logger: logger.Named("session").With(zap.String("session_id", id)),
	}
	s.runActionsFunc = s.runActions
	s.evalFunc = s.evaluateCDP
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// SetOnClose registers a callback run once when the session closes.
func (s *Session) SetOnClose(fn func()) { s.onClose = fn }

// Close closes the tab. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing browser tab.")
		if s.cancel != nil {
			s.cancel()
		}
		if s.onClose != nil {
			s.onClose()
		}
	})
	return nil
}

func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (s *Session) evaluateCDP(ctx context.Context, script string) ([]byte, error) {
	var raw []byte
	err := s.runActionsFunc(ctx, chromedp.Evaluate(script, &raw, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	return raw, err
}

// contextError prefers the caller's cancellation over whatever chromedp reported.
func (s *Session) contextError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if s.ctx.Err() != nil {
		return fmt.Errorf("session closed: %w", err)
	}
	return err
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	err := s.runActionsFunc(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(navCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("navigation to %s timed out after %v: %w", url, s.cfg.NavigationTimeout, navCtx.Err())
	}
	return fmt.Errorf("navigation to %s failed: %w", url, s.contextError(ctx, err))
}

func (s *Session) Reload(ctx context.Context) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()
	if err := s.runActionsFunc(navCtx, chromedp.Reload(), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("reload failed: %w", s.contextError(ctx, err))
	}
	return nil
}

func (s *Session) Location(ctx context.Context) (string, error) {
	var loc string
	if err := s.runActionsFunc(ctx, chromedp.Location(&loc)); err != nil {
		return "", s.contextError(ctx, err)
	}
	return loc, nil
}

func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.runActionsFunc(ctx, chromedp.Title(&title)); err != nil {
		return "", s.contextError(ctx, err)
	}
	return title, nil
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	var markup string
	if err := s.Evaluate(ctx, `document.documentElement ? document.documentElement.outerHTML : ""`, &markup); err != nil {
		return "", err
	}
	return markup, nil
}

func (s *Session) OuterHTMLAll(ctx context.Context, selector string) ([]string, error) {
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%s), el => el.outerHTML)`, jsString(selector))
	var fragments []string
	if err := s.Evaluate(ctx, script, &fragments); err != nil {
		return nil, err
	}
	return fragments, nil
}

func (s *Session) Exists(ctx context.Context, selector string) (bool, error) {
	var found bool
	err := s.Evaluate(ctx, fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(selector)), &found)
	return found, err
}

// Evaluate runs script in the page and decodes its JSON result into out.
// A null result leaves out untouched.
func (s *Session) Evaluate(ctx context.Context, script string, out any) error {
	raw, err := s.evalFunc(ctx, script)
	if err != nil {
		return fmt.Errorf("evaluate script: %w", s.contextError(ctx, err))
	}
	if out == nil || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode script result: %w", err)
	}
	return nil
}

// target is the hit-test result for the center of an element.
type target struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
	Hit    bool    `json:"hit"`
}

const hitTestScript = `(function(sel) {
	const el = document.querySelector(sel);
	if (!el) return null;
	el.scrollIntoView({block: 'center', inline: 'center'});
	const r = el.getBoundingClientRect();
	const x = r.left + r.width / 2, y = r.top + r.height / 2;
	const top = document.elementFromPoint(x, y);
	return {x: x, y: y, w: r.width, h: r.height, hit: !!top && (top === el || el.contains(top))};
})(%s)`

func (s *Session) locate(ctx context.Context, selector string) (*target, error) {
	var t *target
	if err := s.Evaluate(ctx, fmt.Sprintf(hitTestScript, jsString(selector)), &t); err != nil {
		return nil, err
	}
	if t == nil || t.Width <= 0 || t.Height <= 0 {
		return nil, fmt.Errorf("%w: %s", schemas.ErrElementNotFound, selector)
	}
	return t, nil
}

func (s *Session) Click(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	err := s.runActionsFunc(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	cancel()
	if err != nil {
		if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", schemas.ErrElementNotFound, selector)
		}
		return s.contextError(ctx, err)
	}

	t, err := s.locate(ctx, selector)
	if err != nil {
		return err
	}
	if !t.Hit {
		s.logger.Debug("Click target covered by another element.", zap.String("selector", selector))
		return fmt.Errorf("%w: %s", schemas.ErrClickIntercepted, selector)
	}
	if err := s.runActionsFunc(ctx, chromedp.MouseClickXY(t.X, t.Y)); err != nil {
		return fmt.Errorf("click %s: %w", selector, s.contextError(ctx, err))
	}
	return nil
}

var namedKeys = map[string]string{
	schemas.KeyArrowUp:    kb.ArrowUp,
	schemas.KeyArrowDown:  kb.ArrowDown,
	schemas.KeyArrowLeft:  kb.ArrowLeft,
	schemas.KeyArrowRight: kb.ArrowRight,
	schemas.KeyEscape:     kb.Escape,
}

func (s *Session) PressKey(ctx context.Context, key string) error {
	k, ok := namedKeys[key]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	if err := s.runActionsFunc(ctx, chromedp.KeyEvent(k)); err != nil {
		return fmt.Errorf("press %s: %w", key, s.contextError(ctx, err))
	}
	return nil
}

const leftButton = input.MouseButton("left")

func (s *Session) Drag(ctx context.Context, selector string, dx, dy float64) error {
	t, err := s.locate(ctx, selector)
	if err != nil {
		return err
	}

	actions := []chromedp.Action{
		input.DispatchMouseEvent(input.MouseMoved, t.X, t.Y),
		input.DispatchMouseEvent(input.MousePressed, t.X, t.Y).
			WithButton(leftButton).WithButtons(1).WithClickCount(1),
	}
	steps := s.cfg.DragSteps
	for i := 1; i <= steps; i++ {
		f := float64(i) / float64(steps)
		actions = append(actions,
			input.DispatchMouseEvent(input.MouseMoved, t.X+dx*f, t.Y+dy*f).
				WithButton(leftButton).WithButtons(1))
	}
	actions = append(actions,
		input.DispatchMouseEvent(input.MouseReleased, t.X+dx, t.Y+dy).
			WithButton(leftButton).WithClickCount(1))

	if err := s.runActionsFunc(ctx, actions...); err != nil {
		return fmt.Errorf("drag %s: %w", selector, s.contextError(ctx, err))
	}
	return nil
}

// cookieParams converts cookies into CDP parameters.
func cookieParams(cookies []schemas.Cookie) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		switch c.NormalizedSameSite() {
		case schemas.CookieSameSiteStrict:
			p.SameSite = network.CookieSameSiteStrict
		case schemas.CookieSameSiteLax:
			p.SameSite = network.CookieSameSiteLax
		default:
			p.SameSite = network.CookieSameSiteNone
		}
		if at, ok := c.ExpiresAt(); ok {
			exp := cdp.TimeSinceEpoch(at)
			p.Expires = &exp
		}
		params = append(params, p)
	}
	return params
}

func (s *Session) SetCookies(ctx context.Context, cookies []schemas.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	if err := s.runActionsFunc(ctx, network.SetCookies(cookieParams(cookies))); err != nil {
		return fmt.Errorf("set cookies: %w", s.contextError(ctx, err))
	}
	return nil
}

const setStorageScript = `(function(origin, items) {
	if (window.location.origin !== origin) return -1;
	let n = 0;
	for (const [k, v] of Object.entries(items)) {
		try { window.localStorage.setItem(k, v); n++; } catch (e) {}
	}
	return n;
})(%s, %s)`

func (s *Session) SetLocalStorage(ctx context.Context, origin string, items map[string]string) error {
	if len(items) == 0 {
		return nil
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode local storage items: %w", err)
	}
	written := 0
	if err := s.Evaluate(ctx, fmt.Sprintf(setStorageScript, jsString(origin), payload), &written); err != nil {
		return err
	}
	if written < 0 {
		return fmt.Errorf("current document is not on origin %s", origin)
	}
	s.logger.Debug("Local storage written.", zap.String("origin", origin), zap.Int("items", written))
	return nil
}

// jsString quotes v as a JavaScript string literal.
func jsString(v string) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}
