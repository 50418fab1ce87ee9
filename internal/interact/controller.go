// Package interact drives the accept, reject and super-accept actions against the
// profile currently on screen.
package interact

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tinderscope/api/schemas"
	"github.com/xkilldash9x/tinderscope/internal/scope"
	"github.com/xkilldash9x/tinderscope/internal/wait"
)

// Config holds the controller timings.
type Config struct {
	HomeURL string
	// ClickTimeout bounds the wait for each candidate control to become clickable.
	ClickTimeout time.Duration
	// Settle is the pause after a super-accept so the animation completes.
	Settle time.Duration
	Clock  wait.Clock
}

// DefaultConfig returns the controller defaults.
func DefaultConfig() Config {
	return Config{
		HomeURL:      "https://www.tinder.com/app/recs",
		ClickTimeout: 2 * time.Second,
		Settle:       time.Second,
		Clock:        wait.RealClock,
	}
}

// Controller performs swipe actions. It keeps no state between calls.
type Controller struct {
	page   schemas.Page
	cfg    Config
	logger *zap.Logger
}

// NewController creates a controller for page.
func NewController(page schemas.Page, cfg Config, logger *zap.Logger) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = wait.RealClock
	}
	return &Controller{page: page, cfg: cfg, logger: logger.Named("interaction")}
}

// Accept likes the current profile.
func (c *Controller) Accept(ctx context.Context) bool {
	return c.Do(ctx, schemas.ActionAccept)
}

// Reject passes on the current profile.
func (c *Controller) Reject(ctx context.Context) bool {
	return c.Do(ctx, schemas.ActionReject)
}

// SuperAccept super-likes the current profile.
func (c *Controller) SuperAccept(ctx context.Context) bool {
	return c.Do(ctx, schemas.ActionSuperAccept)
}

// Do performs action. It clicks the first available control, falling back to the
// keyboard shortcut or, for super-accept, to dragging the active card upward.
// An intercepted click or an expired wait resets the page to the home view and
// reports false.
func (c *Controller) Do(ctx context.Context, action schemas.InteractionAction) bool {
	log := c.logger.With(zap.String("action", string(action)))

	clicked, err := c.clickControl(ctx, action)
	if err != nil {
		c.reset(ctx, log, err)
		return false
	}
	if clicked {
		if action == schemas.ActionSuperAccept {
			_ = wait.Sleep(ctx, c.cfg.Clock, c.cfg.Settle)
		}
		log.Debug("Action performed by control.")
		return true
	}

	if action == schemas.ActionSuperAccept {
		return c.dragCard(ctx, log)
	}

	key, ok := fallbackKeys[action]
	if !ok {
		log.Warn("Unknown action.")
		return false
	}
	if err := c.page.PressKey(ctx, key); err != nil {
		if isTransient(err) {
			c.reset(ctx, log, err)
		} else {
			log.Info("Keyboard fallback failed.", zap.Error(err))
		}
		return false
	}
	log.Debug("Action performed by keyboard.", zap.String("key", key))
	return true
}

// clickControl tries every selector of action. It reports whether one was clicked;
// a non-nil error is a transient fault that aborts the attempt.
func (c *Controller) clickControl(ctx context.Context, action schemas.InteractionAction) (bool, error) {
	for _, sel := range Selectors(action) {
		err := c.page.Click(ctx, sel, c.cfg.ClickTimeout)
		switch {
		case err == nil:
			return true, nil
		case isTransient(err):
			return false, err
		case ctx.Err() != nil:
			return false, ctx.Err()
		case !errors.Is(err, schemas.ErrElementNotFound):
			c.logger.Debug("Control click failed.", zap.String("selector", sel), zap.Error(err))
		}
	}
	return false, nil
}

func (c *Controller) dragCard(ctx context.Context, log *zap.Logger) bool {
	for _, sel := range scope.CardSelectors {
		err := c.page.Drag(ctx, sel, superAcceptDX, superAcceptDY)
		switch {
		case err == nil:
			_ = wait.Sleep(ctx, c.cfg.Clock, c.cfg.Settle)
			log.Debug("Action performed by drag.", zap.String("selector", sel))
			return true
		case errors.Is(err, schemas.ErrElementNotFound):
			continue
		case isTransient(err):
			c.reset(ctx, log, err)
			return false
		default:
			log.Info("Card drag failed.", zap.Error(err))
			return false
		}
	}
	log.Info("No control and no card to drag.")
	return false
}

func isTransient(err error) bool {
	return errors.Is(err, schemas.ErrClickIntercepted) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Controller) reset(ctx context.Context, log *zap.Logger, cause error) {
	log.Info("Action interrupted, resetting to home view.", zap.Error(cause))
	if ctx.Err() != nil {
		return
	}
	if err := c.page.Navigate(ctx, c.cfg.HomeURL); err != nil {
		log.Warn("Navigation reset failed.", zap.Error(err))
	}
}
