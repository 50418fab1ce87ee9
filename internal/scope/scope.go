// Package scope locates the region of the page that shows the active profile and
// exposes it to extractors through a small capability interface.
package scope

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/tinderscope/api/schemas"
	"github.com/xkilldash9x/tinderscope/internal/browser/dom"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind tells which UI generation a scope belongs to.
type Kind int

const (
	// Card is an inline card in the recommendation stack.
	Card Kind = iota
	// Overlay is an opened profile detail view.
	Overlay
)

func (k Kind) String() string {
	switch k {
	case Card:
		return "card"
	case Overlay:
		return "overlay"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrDetached is returned when the element a scope points at is gone from the page.
var ErrDetached = errors.New("scope: element no longer attached")

// Scope is a resolved handle to one profile's DOM subtree.
type Scope interface {
	Kind() Kind
	// IdentityHint is a best-effort name used to correlate a card with its overlay.
	IdentityHint() string
	// Root returns a snapshot of the scope's subtree.
	Root(ctx context.Context) (*goquery.Selection, error)
	// FindByMarker returns the descendants of the scope matching a CSS marker.
	FindByMarker(ctx context.Context, marker string) (*goquery.Selection, error)
	// TextContent returns the rendered text of the scope, one block per line.
	TextContent(ctx context.Context) (string, error)
	// RunScript evaluates a JS function body with the scope element bound to
	// `root` and decodes the returned value into out. It invalidates cached snapshots.
	RunScript(ctx context.Context, body string, out any) error
}

// domScope addresses its element as the index-th match of selector. Reads go
// through a cached snapshot of the element's outer HTML.
type domScope struct {
	page     schemas.Page
	kind     Kind
	selector string
	index    int
	hint     string

	mu   sync.Mutex
	snap *goquery.Selection
}

// NewDOMScope returns a scope for the index-th element matching selector.
func NewDOMScope(page schemas.Page, kind Kind, selector string, index int, hint string) Scope {
	return &domScope{page: page, kind: kind, selector: selector, index: index, hint: hint}
}

func (s *domScope) Kind() Kind           { return s.kind }
func (s *domScope) IdentityHint() string { return s.hint }

func (s *domScope) String() string {
	return fmt.Sprintf("%s(%s#%d)", s.kind, s.selector, s.index)
}

func (s *domScope) Root(ctx context.Context) (*goquery.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil {
		return s.snap, nil
	}

	htmls, err := s.page.OuterHTMLAll(ctx, s.selector)
	if err != nil {
		return nil, fmt.Errorf("scope: snapshot %s: %w", s.selector, err)
	}
	if s.index >= len(htmls) {
		return nil, ErrDetached
	}
	root, err := dom.Parse(htmls[s.index])
	if err != nil {
		return nil, err
	}
	s.snap = root
	return root, nil
}

func (s *domScope) FindByMarker(ctx context.Context, marker string) (*goquery.Selection, error) {
	root, err := s.Root(ctx)
	if err != nil {
		return nil, err
	}
	return root.Find(marker), nil
}

func (s *domScope) TextContent(ctx context.Context) (string, error) {
	root, err := s.Root(ctx)
	if err != nil {
		return "", err
	}
	return dom.InnerText(root), nil
}

func (s *domScope) RunScript(ctx context.Context, body string, out any) error {
	sel, err := json.Marshal(s.selector)
	if err != nil {
		return err
	}
	script := fmt.Sprintf(`(function(root) {
  if (!root) { return null; }
  %s
})(document.querySelectorAll(%s)[%d])`, body, sel, s.index)

	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()

	if err := s.page.Evaluate(ctx, script, out); err != nil {
		return fmt.Errorf("scope: script on %s: %w", s.selector, err)
	}
	return nil
}

// Invalidate drops the cached snapshot of s, if s caches one.
func Invalidate(s Scope) {
	if ds, ok := s.(*domScope); ok {
		ds.mu.Lock()
		ds.snap = nil
		ds.mu.Unlock()
	}
}
