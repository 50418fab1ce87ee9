package schemas

import (
	"context"
	"errors"
	"time"
)

// -- Page Interface --

var (
	// ErrElementNotFound is returned when a selector matches nothing before its wait expires.
	ErrElementNotFound = errors.New("element not found")
	// ErrClickIntercepted is returned when another element sits on top of the click target.
	ErrClickIntercepted = errors.New("click intercepted by another element")
)

// Named keys accepted by Page.PressKey.
const (
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyEscape     = "Escape"
)

// Page is the handle to one live browser tab. Every call is bounded by ctx.
type Page interface {
	// Navigate loads url and waits for the document body.
	Navigate(ctx context.Context, url string) error
	// Reload refreshes the current document.
	Reload(ctx context.Context) error
	// Location returns the current URL.
	Location(ctx context.Context) (string, error)
	// Title returns the document title.
	Title(ctx context.Context) (string, error)
	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)
	// OuterHTMLAll returns the outer HTML of every element matching selector, in document order.
	OuterHTMLAll(ctx context.Context, selector string) ([]string, error)
	// Exists reports whether selector matches at least one element.
	Exists(ctx context.Context, selector string) (bool, error)
	// Evaluate runs script and decodes its JSON result into out (out may be nil).
	Evaluate(ctx context.Context, script string, out any) error
	// Click waits up to timeout for selector to be visible, then clicks its center.
	// It returns ErrElementNotFound when the wait expires and ErrClickIntercepted
	// when a different element receives the hit test.
	Click(ctx context.Context, selector string, timeout time.Duration) error
	// PressKey dispatches a key down/up pair for one of the Key* names.
	PressKey(ctx context.Context, key string) error
	// Drag presses the mouse on the center of selector, moves it by (dx, dy) and releases.
	Drag(ctx context.Context, selector string, dx, dy float64) error
	// SetCookies installs cookies into the browser's cookie jar.
	SetCookies(ctx context.Context, cookies []Cookie) error
	// SetLocalStorage writes items into localStorage when the current document belongs to origin.
	SetLocalStorage(ctx context.Context, origin string, items map[string]string) error
}

// ProfileSink receives every profile the scraper assembles.
type ProfileSink interface {
	SaveProfile(ctx context.Context, runID string, p *ExtractedProfile) error
}
