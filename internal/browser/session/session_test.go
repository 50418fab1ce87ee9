package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/tinderscope/api/schemas"
)

// recorder stands in for the CDP connection.
type recorder struct {
	mu      sync.Mutex
	batches [][]chromedp.Action
	scripts []string

	run  func(ctx context.Context, actions []chromedp.Action) error
	eval func(script string) ([]byte, error)
}

func (r *recorder) runActions(ctx context.Context, actions ...chromedp.Action) error {
	r.mu.Lock()
	r.batches = append(r.batches, actions)
	r.mu.Unlock()
	if r.run != nil {
		return r.run(ctx, actions)
	}
	return ctx.Err()
}

func (r *recorder) evaluate(ctx context.Context, script string) ([]byte, error) {
	r.mu.Lock()
	r.scripts = append(r.scripts, script)
	r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.eval != nil {
		return r.eval(script)
	}
	return []byte("null"), nil
}

func newTestSession(t *testing.T, cfg Config) (*Session, *recorder) {
	t.Helper()
	s := New(context.Background(), nil, cfg, zaptest.NewLogger(t))
	rec := &recorder{}
	s.runActionsFunc = rec.runActions
	s.evalFunc = rec.evaluate
	return s, rec
}

func blockUntilDone(ctx context.Context, _ []chromedp.Action) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestEvaluate(t *testing.T) {
	t.Run("decodes result", func(t *testing.T) {
		s, rec := newTestSession(t, Config{})
		rec.eval = func(string) ([]byte, error) { return []byte(`["<div>a</div>","<div>b</div>"]`), nil }

		got, err := s.OuterHTMLAll(context.Background(), "div[data-x='1']")
		require.NoError(t, err)
		assert.Equal(t, []string{"<div>a</div>", "<div>b</div>"}, got)
		assert.Contains(t, rec.scripts[0], `"div[data-x='1']"`)
	})

	t.Run("null leaves target untouched", func(t *testing.T) {
		s, _ := newTestSession(t, Config{})
		out := "unchanged"
		require.NoError(t, s.Evaluate(context.Background(), "null", &out))
		assert.Equal(t, "unchanged", out)
	})

	t.Run("nil target", func(t *testing.T) {
		s, rec := newTestSession(t, Config{})
		rec.eval = func(string) ([]byte, error) { return []byte(`{"a":1}`), nil }
		assert.NoError(t, s.Evaluate(context.Background(), "x()", nil))
	})

	t.Run("decode failure", func(t *testing.T) {
		s, rec := newTestSession(t, Config{})
		rec.eval = func(string) ([]byte, error) { return []byte(`"text"`), nil }
		var n int
		err := s.Evaluate(context.Background(), "x()", &n)
		assert.ErrorContains(t, err, "decode script result")
	})

	t.Run("canceled context wins", func(t *testing.T) {
		s, _ := newTestSession(t, Config{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Exists(ctx, "body")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNavigate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s, rec := newTestSession(t, Config{})
		rec.run = func(context.Context, []chromedp.Action) error { return nil }

		require.NoError(t, s.Navigate(context.Background(), "https://www.tinder.com/app/recs"))
		require.Len(t, rec.batches, 1)
		assert.Len(t, rec.batches[0], 2)
	})

	t.Run("timeout", func(t *testing.T) {
		s, rec := newTestSession(t, Config{NavigationTimeout: 10 * time.Millisecond})
		rec.run = blockUntilDone

		err := s.Navigate(context.Background(), "https://www.tinder.com")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, err.Error(), "timed out")
	})

	t.Run("failure", func(t *testing.T) {
		s, rec := newTestSession(t, Config{})
		boom := errors.New("net::ERR_NAME_NOT_RESOLVED")
		rec.run = func(context.Context, []chromedp.Action) error { return boom }

		err := s.Navigate(context.Background(), "https://nowhere.invalid")
		assert.ErrorIs(t, err, boom)
	})
}

func TestClick(t *testing.T) {
	visible := func(hit bool) func(string) ([]byte, error) {
		return func(string) ([]byte, error) {
			if hit {
				return []byte(`{"x":50,"y":60,"w":20,"h":10,"hit":true}`), nil
			}
			return []byte(`{"x":50,"y":60,"w":20,"h":10,"hit":false}`), nil
		}
	}

	t.Run("clicks center", func(t *testing.T) {
		s, rec := newTestSession(t, Config{})
		rec.run = func(context.Context, []chromedp.Action) error { return nil }
		rec.eval = visible(true)

		require.NoError(t, s.Click(context.Background(), "button[aria-label='Like']", time.Second))
		assert.Len(t, rec.batches, 2, "wait then click")
	})

	t.Run("not visible before timeout", func(t *testing.T) {
		s, rec := newTestSession(t, Config{})
		rec.run = blockUntilDone

		err := s.Click(context.Background(), "button.missing", 20*time.Millisecond)
		assert.ErrorIs(t, err, schemas.ErrElementNotFound)
		assert.Empty(t, rec.scripts)
	})

	t.Run("intercepted", func(t *testing.T) {
		s, rec := newTestSession(t, Config{})
		rec.run = func(context.Context, []chromedp.Action) error { return nil }
		rec.eval = visible(false)

		err := s.Click(context.Background(), "button", time.Second)
		assert.ErrorIs(t, err, schemas.ErrClickIntercepted)
		assert.Len(t, rec.batches, 1, "no mouse events after a failed hit test")
	})

	t.Run("detached after wait", func(t *testing.T) {
		s, rec := newTestSession(t, Config{})
		rec.run = func(context.Context, []chromedp.Action) error { return nil }

		err := s.Click(context.Background(), "button", time.Second)
		assert.ErrorIs(t, err, schemas.ErrElementNotFound)
	})

	t.Run("caller canceled", func(t *testing.T) {
		s, rec := newTestSession(t, Config{})
		rec.run = blockUntilDone
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := s.Click(ctx, "button", time.Second)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, schemas.ErrElementNotFound)
	})
}

func TestPressKey(t *testing.T) {
	s, rec := newTestSession(t, Config{})
	rec.run = func(context.Context, []chromedp.Action) error { return nil }

	for _, key := range []string{schemas.KeyArrowUp, schemas.KeyArrowDown, schemas.KeyArrowLeft, schemas.KeyArrowRight, schemas.KeyEscape} {
		require.NoError(t, s.PressKey(context.Background(), key), key)
	}
	assert.Len(t, rec.batches, 5)

	assert.ErrorContains(t, s.PressKey(context.Background(), "F13"), "unsupported key")
	assert.Len(t, rec.batches, 5)
}

func TestDrag(t *testing.T) {
	s, rec := newTestSession(t, Config{DragSteps: 4})
	rec.run = func(context.Context, []chromedp.Action) error { return nil }
	rec.eval = func(string) ([]byte, error) { return []byte(`{"x":100,"y":200,"w":300,"h":400,"hit":true}`), nil }

	require.NoError(t, s.Drag(context.Background(), "div.card", 500, 0))
	require.Len(t, rec.batches, 1)
	// move, press, four steps, release
	assert.Len(t, rec.batches[0], 7)
}

func TestSetCookies(t *testing.T) {
	t.Run("empty is a no-op", func(t *testing.T) {
		s, rec := newTestSession(t, Config{})
		require.NoError(t, s.SetCookies(context.Background(), nil))
		assert.Empty(t, rec.batches)
	})

	t.Run("one batch", func(t *testing.T) {
		s, rec := newTestSession(t, Config{})
		rec.run = func(context.Context, []chromedp.Action) error { return nil }
		require.NoError(t, s.SetCookies(context.Background(), []schemas.Cookie{{Name: "a"}, {Name: "b"}}))
		assert.Len(t, rec.batches, 1)
	})

	t.Run("converts attributes", func(t *testing.T) {
		exp := int64(1893456000)
		params := cookieParams([]schemas.Cookie{
			{Name: "session", Value: "v", Domain: ".tinder.com", Path: "/", Expiry: &exp, Secure: true, HTTPOnly: true, SameSite: "lax"},
			{Name: "tmp", Domain: ".tinder.com", SameSite: "bogus"},
		})
		require.Len(t, params, 2)

		assert.Equal(t, "session", params[0].Name)
		assert.Equal(t, ".tinder.com", params[0].Domain)
		assert.True(t, params[0].Secure)
		assert.True(t, params[0].HTTPOnly)
		assert.Equal(t, network.CookieSameSiteLax, params[0].SameSite)
		require.NotNil(t, params[0].Expires)
		assert.Equal(t, exp, params[0].Expires.Time().Unix())

		assert.Equal(t, network.CookieSameSiteNone, params[1].SameSite)
		assert.Nil(t, params[1].Expires)
	})
}

func TestSetLocalStorage(t *testing.T) {
	t.Run("writes on matching origin", func(t *testing.T) {
		s, rec := newTestSession(t, Config{})
		rec.eval = func(string) ([]byte, error) { return []byte("2"), nil }

		err := s.SetLocalStorage(context.Background(), "https://www.tinder.com", map[string]string{"a": "1", "b": "2"})
		require.NoError(t, err)
		require.Len(t, rec.scripts, 1)
		assert.True(t, strings.Contains(rec.scripts[0], `"https://www.tinder.com"`))
		assert.Contains(t, rec.scripts[0], `{"a":"1","b":"2"}`)
	})

	t.Run("origin mismatch", func(t *testing.T) {
		s, rec := newTestSession(t, Config{})
		rec.eval = func(string) ([]byte, error) { return []byte("-1"), nil }

		err := s.SetLocalStorage(context.Background(), "https://gotinder.com", map[string]string{"a": "1"})
		assert.ErrorContains(t, err, "not on origin https://gotinder.com")
	})

	t.Run("nothing to write", func(t *testing.T) {
		s, rec := newTestSession(t, Config{})
		require.NoError(t, s.SetLocalStorage(context.Background(), "https://www.tinder.com", nil))
		assert.Empty(t, rec.scripts)
	})
}

func TestClose(t *testing.T) {
	tab, cancel := context.WithCancel(context.Background())
	s := New(tab, cancel, Config{}, zaptest.NewLogger(t))
	calls := 0
	s.SetOnClose(func() { calls++ })

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, tab.Err(), context.Canceled)
	assert.NotEmpty(t, s.ID())
}

func TestJSString(t *testing.T) {
	assert.Equal(t, `"a\"b"`, jsString(`a"b`))
	assert.Equal(t, `"div[aria-label='x']"`, jsString(`div[aria-label='x']`))
}
