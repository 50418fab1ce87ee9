// Package mocks provides test doubles shared across packages.
package mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/tinderscope/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoScriptHandler is returned by FakePage.Evaluate when no handler matches a script.
var ErrNoScriptHandler = errors.New("fake page: no script handler")

// ScriptFunc answers one Evaluate call. The returned value is JSON round-tripped into out.
type ScriptFunc func(p *FakePage, script string) (any, error)

type scriptHandler struct {
	contains string
	fn       ScriptFunc
}

// FakePage is a schemas.Page backed by a parsed HTML document. Selectors are
// answered with goquery; scripts are answered by registered handlers.
type FakePage struct {
	mu  sync.Mutex
	doc *goquery.Document

	url     string
	title   string
	scripts []scriptHandler

	// Intercepted selectors fail Click with schemas.ErrClickIntercepted.
	Intercepted map[string]bool
	// ClickHooks run after a successful click on the selector.
	ClickHooks map[string]func(p *FakePage)
	// KeyHooks run after a key press.
	KeyHooks map[string]func(p *FakePage)
	// NavigateHook runs after every navigation.
	NavigateHook func(p *FakePage, url string)
	// DragErr, KeyErr and NavigateErr are returned by the corresponding calls when set.
	DragErr     error
	KeyErr      error
	NavigateErr error

	Clicks       []string
	ClickWaits   []time.Duration
	Keys         []string
	Drags        []string
	Navigations  []string
	Reloads      int
	Cookies      []schemas.Cookie
	LocalStorage map[string]map[string]string
}

var _ schemas.Page = (*FakePage)(nil)

// NewFakePage returns a page showing markup at url.
func NewFakePage(url, markup string) *FakePage {
	p := &FakePage{
		url:          url,
		Intercepted:  map[string]bool{},
		ClickHooks:   map[string]func(p *FakePage){},
		KeyHooks:     map[string]func(p *FakePage){},
		LocalStorage: map[string]map[string]string{},
	}
	p.SetHTML(markup)
	return p
}

// SetHTML replaces the document.
func (p *FakePage) SetHTML(markup string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		panic(fmt.Sprintf("fake page: bad markup: %v", err))
	}
	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
}

// SetURL changes the current location.
func (p *FakePage) SetURL(url string) {
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
}

// SetTitle changes the document title.
func (p *FakePage) SetTitle(title string) {
	p.mu.Lock()
	p.title = title
	p.mu.Unlock()
}

// Document returns the current document for direct manipulation in tests.
func (p *FakePage) Document() *goquery.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc
}

// OnScript registers fn for every script containing substr. Earlier registrations win.
func (p *FakePage) OnScript(substr string, fn ScriptFunc) {
	p.mu.Lock()
	p.scripts = append(p.scripts, scriptHandler{contains: substr, fn: fn})
	p.mu.Unlock()
}

func (p *FakePage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.Navigations = append(p.Navigations, url)
	if p.NavigateErr != nil {
		err := p.NavigateErr
		p.mu.Unlock()
		return err
	}
	p.url = url
	hook := p.NavigateHook
	p.mu.Unlock()
	if hook != nil {
		hook(p, url)
	}
	return nil
}

func (p *FakePage) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.Reloads++
	p.mu.Unlock()
	return nil
}

func (p *FakePage) Location(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, ctx.Err()
}

func (p *FakePage) Title(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, ctx.Err()
}

func (p *FakePage) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.doc.Html()
}

func (p *FakePage) OuterHTMLAll(ctx context.Context, selector string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []string
	var outerErr error
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		h, err := goquery.OuterHtml(s)
		if err != nil {
			outerErr = err
			return
		}
		out = append(out, h)
	})
	return out, outerErr
}

func (p *FakePage) Exists(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.doc.Find(selector).Length() > 0, nil
}

func (p *FakePage) Evaluate(ctx context.Context, script string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	var fn ScriptFunc
	for _, h := range p.scripts {
		if strings.Contains(script, h.contains) {
			fn = h.fn
			break
		}
	}
	p.mu.Unlock()
	if fn == nil {
		return ErrNoScriptHandler
	}

	v, err := fn(p, script)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (p *FakePage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.ClickWaits = append(p.ClickWaits, timeout)
	if p.doc.Find(selector).Length() == 0 {
		p.mu.Unlock()
		return schemas.ErrElementNotFound
	}
	if p.Intercepted[selector] {
		p.mu.Unlock()
		return schemas.ErrClickIntercepted
	}
	p.Clicks = append(p.Clicks, selector)
	hook := p.ClickHooks[selector]
	p.mu.Unlock()
	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *FakePage) PressKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	if p.KeyErr != nil {
		err := p.KeyErr
		p.mu.Unlock()
		return err
	}
	p.Keys = append(p.Keys, key)
	hook := p.KeyHooks[key]
	p.mu.Unlock()
	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *FakePage) Drag(ctx context.Context, selector string, dx, dy float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.DragErr != nil {
		return p.DragErr
	}
	if p.doc.Find(selector).Length() == 0 {
		return schemas.ErrElementNotFound
	}
	p.Drags = append(p.Drags, fmt.Sprintf("%s:%g,%g", selector, dx, dy))
	return nil
}

func (p *FakePage) SetCookies(ctx context.Context, cookies []schemas.Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.Cookies = append(p.Cookies, cookies...)
	p.mu.Unlock()
	return nil
}

func (p *FakePage) SetLocalStorage(ctx context.Context, origin string, items map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.LocalStorage[origin] == nil {
		p.LocalStorage[origin] = map[string]string{}
	}
	for k, v := range items {
		p.LocalStorage[origin][k] = v
	}
	return nil
}
