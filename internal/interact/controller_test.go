package interact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/tinderscope/api/schemas"
	"github.com/xkilldash9x/tinderscope/internal/mocks"
	"github.com/xkilldash9x/tinderscope/internal/wait"
)

const home = "https://tinder.com/app/recs"

const activeCard = `<div data-keyboard-gamepad="true" aria-hidden="false"><span itemprop="name">Sam</span></div>`

func newController(t *testing.T, markup string) (*Controller, *mocks.FakePage, *wait.FakeClock) {
	t.Helper()
	page := mocks.NewFakePage(home, markup)
	clock := wait.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	cfg := DefaultConfig()
	cfg.HomeURL = home
	cfg.Clock = clock
	return NewController(page, cfg, zaptest.NewLogger(t)), page, clock
}

func TestSelectors(t *testing.T) {
	assert.Equal(t, []string{
		"button[aria-label='Nope']",
		"div[role='button'][aria-label='Nope']",
		"button[aria-label='Dislike']",
		"div[role='button'][aria-label='Dislike']",
		"button[data-testid='nope']",
		"div[role='button'][data-testid='nope']",
		"button[data-testid='gamepadDislike']",
		"div[role='button'][data-testid='gamepadDislike']",
		"button[data-testid='recNope']",
		"div[role='button'][data-testid='recNope']",
	}, Selectors(schemas.ActionReject))
	assert.Len(t, Selectors(schemas.ActionAccept), 8)
	assert.Len(t, Selectors(schemas.ActionSuperAccept), 10)
}

func TestAccept(t *testing.T) {
	ctx := context.Background()

	t.Run("labeled control", func(t *testing.T) {
		c, page, _ := newController(t, activeCard+`<button aria-label="Like"></button>`)
		assert.True(t, c.Accept(ctx))
		assert.Equal(t, []string{"button[aria-label='Like']"}, page.Clicks)
		assert.Empty(t, page.Keys)
	})

	t.Run("no control falls back to the keyboard", func(t *testing.T) {
		c, page, _ := newController(t, activeCard)
		assert.True(t, c.Accept(ctx))
		assert.Empty(t, page.Clicks)
		assert.Equal(t, []string{schemas.KeyArrowRight}, page.Keys)
		require.Len(t, page.ClickWaits, len(Selectors(schemas.ActionAccept)))
		for _, w := range page.ClickWaits {
			assert.Equal(t, 2*time.Second, w)
		}
	})

	t.Run("intercepted click resets home", func(t *testing.T) {
		c, page, _ := newController(t, activeCard+`<button aria-label="Like"></button>`)
		page.Intercepted["button[aria-label='Like']"] = true
		assert.False(t, c.Accept(ctx))
		assert.Equal(t, []string{home}, page.Navigations)
		assert.Empty(t, page.Keys, "no further attempt after a reset")
	})

	t.Run("keyboard timeout resets home", func(t *testing.T) {
		c, page, _ := newController(t, activeCard)
		page.KeyErr = context.DeadlineExceeded
		assert.False(t, c.Accept(ctx))
		assert.Equal(t, []string{home}, page.Navigations)
	})

	t.Run("keyboard failure is not a reset", func(t *testing.T) {
		c, page, _ := newController(t, activeCard)
		page.KeyErr = errors.New("target closed")
		assert.False(t, c.Accept(ctx))
		assert.Empty(t, page.Navigations)
	})
}

func TestReject(t *testing.T) {
	c, page, _ := newController(t, activeCard+`<div role="button" data-testid="gamepadDislike"></div>`)
	assert.True(t, c.Reject(context.Background()))
	assert.Equal(t, []string{"div[role='button'][data-testid='gamepadDislike']"}, page.Clicks)

	c, page, _ = newController(t, activeCard)
	assert.True(t, c.Reject(context.Background()))
	assert.Equal(t, []string{schemas.KeyArrowLeft}, page.Keys)
}

func TestSuperAccept(t *testing.T) {
	ctx := context.Background()

	t.Run("control click settles", func(t *testing.T) {
		c, page, clock := newController(t, activeCard+`<button data-testid="recSuperLike"></button>`)
		assert.True(t, c.SuperAccept(ctx))
		assert.Equal(t, []string{"button[data-testid='recSuperLike']"}, page.Clicks)
		assert.Equal(t, []time.Duration{time.Second}, clock.Sleeps())
	})

	t.Run("drags the active card upward", func(t *testing.T) {
		c, page, _ := newController(t, activeCard)
		assert.True(t, c.SuperAccept(ctx))
		assert.Equal(t, []string{"div[data-keyboard-gamepad='true'][aria-hidden='false']:0,-200"}, page.Drags)
		assert.Empty(t, page.Keys)
	})

	t.Run("nothing to act on", func(t *testing.T) {
		c, page, _ := newController(t, `<main></main>`)
		assert.False(t, c.SuperAccept(ctx))
		assert.Empty(t, page.Drags)
		assert.Empty(t, page.Navigations)
	})

	t.Run("failed drag is a no-op", func(t *testing.T) {
		c, page, _ := newController(t, activeCard)
		page.DragErr = errors.New("no bounding box")
		assert.False(t, c.SuperAccept(ctx))
		assert.Empty(t, page.Navigations)
	})
}
