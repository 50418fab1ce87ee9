package scope

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/xkilldash9x/tinderscope/internal/browser/dom"
	"github.com/xkilldash9x/tinderscope/internal/validate"
	"github.com/xkilldash9x/tinderscope/internal/wait"
)

// ContentReady reports whether the asynchronously rendered content of s has materialized.
// Overlays need a section heading plus an "essentials" or "looking for" heading;
// cards need a name or age element.
func ContentReady(ctx context.Context, s Scope) (bool, error) {
	Invalidate(s)
	root, err := s.Root(ctx)
	if err != nil {
		return false, err
	}
	if s.Kind() == Card {
		return root.Find(NameMarker).Length() > 0 || root.Find(AgeMarker).Length() > 0, nil
	}

	headings := root.Find("h2")
	if headings.Length() == 0 {
		return false, nil
	}
	ready := false
	headings.EachWithBreak(func(_ int, h *goquery.Selection) bool {
		title := validate.NormalizeSpace(dom.Text(h))
		if title == "essentials" || strings.Contains(title, "looking for") {
			ready = true
			return false
		}
		return true
	})
	return ready, nil
}

// WaitForContentReady polls ContentReady every cfg.ReadyInterval until it holds or
// timeout elapses. Evaluation errors count as not ready. It never returns an error;
// a false result means the caller should extract on a best-effort basis.
func WaitForContentReady(ctx context.Context, s Scope, timeout time.Duration, cfg Config) bool {
	if s == nil {
		return false
	}
	p := wait.Poller{Interval: cfg.ReadyInterval, Timeout: timeout, Clock: cfg.Clock}
	ok, _ := p.Until(ctx, func(ctx context.Context) (bool, error) {
		return ContentReady(ctx, s)
	})
	return ok
}
