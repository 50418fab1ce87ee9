package scope

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tinderscope/api/schemas"
	"github.com/xkilldash9x/tinderscope/internal/browser/dom"
	"github.com/xkilldash9x/tinderscope/internal/wait"
)

// ErrNoProfile means neither an overlay nor a card is visible.
var ErrNoProfile = errors.New("scope: no profile visible")

var errNotOpened = errors.New("scope: profile did not open")

// Config holds the timing of scope resolution, readiness and expansion.
type Config struct {
	HomeURL          string
	OpenClickTimeout time.Duration
	SettleDelay      time.Duration
	OpenedTimeout    time.Duration
	PollInterval     time.Duration
	RetryDelay       time.Duration
	ReadyTimeout     time.Duration
	ReadyInterval    time.Duration
	ExpandRuns       int
	ExpandSettle     time.Duration
	Clock            wait.Clock
}

// DefaultConfig returns the timings observed to work against the live UI.
func DefaultConfig() Config {
	return Config{
		HomeURL:          "https://www.tinder.com/app/recs",
		OpenClickTimeout: time.Second,
		SettleDelay:      600 * time.Millisecond,
		OpenedTimeout:    2 * time.Second,
		PollInterval:     250 * time.Millisecond,
		RetryDelay:       2 * time.Second,
		ReadyTimeout:     12 * time.Second,
		ReadyInterval:    500 * time.Millisecond,
		ExpandRuns:       3,
		ExpandSettle:     300 * time.Millisecond,
		Clock:            wait.RealClock,
	}
}

// Resolution is the outcome of one resolve call.
type Resolution struct {
	// Scope is the best representation of the active profile.
	Scope Scope
	// Card is the active card, nil when no card is in the stack.
	Card Scope
	// Opened is true when Scope is an overlay.
	Opened bool
}

// Resolver finds the active profile on a page. It keeps no state between calls.
type Resolver struct {
	page   schemas.Page
	cfg    Config
	logger *zap.Logger
}

// NewResolver creates a resolver over page.
func NewResolver(page schemas.Page, cfg Config, logger *zap.Logger) *Resolver {
	if cfg.Clock == nil {
		cfg.Clock = wait.RealClock
	}
	return &Resolver{page: page, cfg: cfg, logger: logger.Named("scope_resolver")}
}

// Resolve returns the active profile's scope. When openIfNeeded is set and only a
// card is showing, it first tries to open the detail overlay. Otherwise, or when the
// open fails, a dialog already showing the card's name is used. A failed open is
// not an error: the card scope is returned and Opened stays false.
func (r *Resolver) Resolve(ctx context.Context, openIfNeeded bool) (*Resolution, error) {
	overlay, err := r.overlay(ctx)
	if err != nil {
		return nil, err
	}
	card, err := r.ActiveCard(ctx)
	if err != nil {
		return nil, err
	}
	if overlay != nil {
		return &Resolution{Scope: overlay, Card: card, Opened: true}, nil
	}

	res := &Resolution{Card: card}
	var opened Scope
	if openIfNeeded && r.Open(ctx, card) {
		opened, err = r.openedScope(ctx, card)
	} else {
		// A dialog already showing the card's profile is used even though nothing
		// was opened here.
		opened, err = r.dialogScope(ctx, hintOf(card), false)
	}
	if err != nil {
		return nil, err
	}
	if opened != nil {
		res.Scope, res.Opened = opened, true
		return res, nil
	}

	if card != nil {
		res.Scope = card
		return res, nil
	}
	return nil, ErrNoProfile
}

func (r *Resolver) overlay(ctx context.Context) (Scope, error) {
	ok, err := r.page.Exists(ctx, OverlayMarker)
	if err != nil {
		return nil, fmt.Errorf("scope: probe overlay: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return NewDOMScope(r.page, Overlay, OverlayMarker, 0, ""), nil
}

// ActiveCard returns the visible card of the stack, or nil if the stack is empty.
func (r *Resolver) ActiveCard(ctx context.Context) (Scope, error) {
	for _, sel := range CardSelectors {
		htmls, err := r.page.OuterHTMLAll(ctx, sel)
		if err != nil {
			return nil, fmt.Errorf("scope: probe card %s: %w", sel, err)
		}
		if len(htmls) == 0 {
			continue
		}
		hint := ""
		if root, err := dom.Parse(htmls[0]); err == nil {
			hint = dom.Text(root.Find(NameMarker).First())
		}
		return NewDOMScope(r.page, Card, sel, 0, hint), nil
	}
	return nil, nil
}

// IsProfileOpened reports whether the detail overlay is showing.
func (r *Resolver) IsProfileOpened(ctx context.Context) (bool, error) {
	loc, err := r.page.Location(ctx)
	if err != nil {
		return false, err
	}
	if strings.Contains(loc, ProfilePathMarker) {
		return true, nil
	}
	for _, marker := range []string{BackButtonMarker, OverlayMarker} {
		ok, err := r.page.Exists(ctx, marker)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Open runs the open sequence, retrying it once after an intercepted click or an
// expired wait. When both attempts fail it navigates back to the home view and
// reports false.
func (r *Resolver) Open(ctx context.Context, card Scope) bool {
	if ok, _ := r.IsProfileOpened(ctx); ok {
		return true
	}

	err := retry.Do(
		func() error { return r.openOnce(ctx, card) },
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(r.cfg.RetryDelay),
		retry.MaxJitter(100*time.Millisecond),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Debug("Retrying profile open.", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err == nil {
		return true
	}
	if ctx.Err() != nil {
		return false
	}

	r.logger.Info("Profile not opened, resetting to home view.", zap.Error(err))
	if navErr := r.page.Navigate(ctx, r.cfg.HomeURL); navErr != nil {
		r.logger.Warn("Navigation reset failed.", zap.Error(navErr))
	}
	return false
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, schemas.ErrClickIntercepted) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, errNotOpened)
}

func (r *Resolver) openOnce(ctx context.Context, card Scope) error {
	if card != nil {
		var clicked bool
		if err := card.RunScript(ctx, openButtonScript, &clicked); err != nil {
			r.logger.Debug("Card open button script failed.", zap.Error(err))
		} else if clicked {
			if r.waitOpened(ctx, r.cfg.OpenedTimeout) {
				return nil
			}
		}
	}

	for _, sel := range OpenProfileSelectors {
		err := r.page.Click(ctx, sel, r.cfg.OpenClickTimeout)
		switch {
		case err == nil:
			if r.waitOpened(ctx, r.cfg.SettleDelay) {
				return nil
			}
		case errors.Is(err, schemas.ErrElementNotFound):
			continue
		case errors.Is(err, schemas.ErrClickIntercepted), errors.Is(err, context.DeadlineExceeded):
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			r.logger.Debug("Open control click failed.", zap.String("selector", sel), zap.Error(err))
		}
	}

	if err := r.page.PressKey(ctx, schemas.KeyArrowUp); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Debug("Open shortcut failed.", zap.Error(err))
	} else if r.waitOpened(ctx, r.cfg.SettleDelay) {
		return nil
	}
	return errNotOpened
}

// waitOpened polls the opened state for up to bound.
func (r *Resolver) waitOpened(ctx context.Context, bound time.Duration) bool {
	p := wait.Poller{Interval: r.cfg.PollInterval, Timeout: bound, Clock: r.cfg.Clock}
	ok, _ := p.Until(ctx, r.IsProfileOpened)
	return ok
}

// openedScope finds the overlay that belongs to card after an open.
func (r *Resolver) openedScope(ctx context.Context, card Scope) (Scope, error) {
	if ov, err := r.overlay(ctx); err != nil || ov != nil {
		return ov, err
	}
	return r.dialogScope(ctx, hintOf(card), true)
}

// dialogScope returns the dialog whose text contains hint. Without a hint, a lone
// dialog is taken only when allowLone is set.
func (r *Resolver) dialogScope(ctx context.Context, hint string, allowLone bool) (Scope, error) {
	htmls, err := r.page.OuterHTMLAll(ctx, DialogSelector)
	if err != nil {
		return nil, fmt.Errorf("scope: probe dialogs: %w", err)
	}
	if hint == "" {
		if allowLone && len(htmls) == 1 {
			return NewDOMScope(r.page, Overlay, DialogSelector, 0, ""), nil
		}
		return nil, nil
	}
	for i, h := range htmls {
		root, err := dom.Parse(h)
		if err != nil {
			continue
		}
		if strings.Contains(dom.InnerText(root), hint) {
			return NewDOMScope(r.page, Overlay, DialogSelector, i, hint), nil
		}
	}
	return nil, nil
}

func hintOf(card Scope) string {
	if card == nil {
		return ""
	}
	return card.IdentityHint()
}
