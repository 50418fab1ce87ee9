package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xkilldash9x/tinderscope/internal/browser/dom"
	"github.com/xkilldash9x/tinderscope/internal/scope"
	"github.com/xkilldash9x/tinderscope/internal/validate"
)

// Target is what an extraction reads from: the resolved scope and, when one is in
// the stack, the active card. Card may be nil or equal to Scope.
type Target struct {
	Scope scope.Scope
	Card  scope.Scope
}

// scopes returns the distinct non-nil scopes of t, resolved scope first.
func (t Target) scopes() []scope.Scope {
	var out []scope.Scope
	if t.Scope != nil {
		out = append(out, t.Scope)
	}
	if t.Card != nil && t.Card != t.Scope {
		out = append(out, t.Card)
	}
	return out
}

func (t Target) overlay() scope.Scope {
	if t.Scope != nil && t.Scope.Kind() == scope.Overlay {
		return t.Scope
	}
	return nil
}

func (t Target) card() scope.Scope {
	if t.Card != nil {
		return t.Card
	}
	if t.Scope != nil && t.Scope.Kind() == scope.Card {
		return t.Scope
	}
	return nil
}

// firstText returns the text of the first non-blank element matching marker in s.
func firstText(ctx context.Context, s scope.Scope, marker string) (string, error) {
	if s == nil {
		return "", errNoMatch
	}
	sel, err := s.FindByMarker(ctx, marker)
	if err != nil {
		return "", err
	}
	if texts := dom.Texts(sel); len(texts) > 0 {
		return texts[0], nil
	}
	return "", errNoMatch
}

func scopeText(ctx context.Context, s scope.Scope) (string, error) {
	if s == nil {
		return "", errNoMatch
	}
	return s.TextContent(ctx)
}

func nameChain(t Target) Chain[string] {
	return Chain[string]{
		Field: "name",
		Valid: validate.IsValidName,
		Strategies: []Strategy[string]{
			{Name: "card_itemprop", Read: func(ctx context.Context) (string, error) {
				return firstText(ctx, t.card(), nameMarker)
			}},
			{Name: "overlay_heading", Read: func(ctx context.Context) (string, error) {
				ov := t.overlay()
				if v, err := firstText(ctx, ov, pendNameMarker); err == nil {
					return v, nil
				}
				if ov == nil {
					return "", errNoMatch
				}
				h1, err := ov.FindByMarker(ctx, "h1")
				if err != nil || h1.Length() == 0 {
					return "", errNoMatch
				}
				return validate.FirstLine(dom.InnerText(h1.First())), nil
			}},
			{Name: "aria_label", Read: func(ctx context.Context) (string, error) {
				for _, s := range t.scopes() {
					if name, _, ok := ariaHeading(ctx, s); ok {
						return name, nil
					}
				}
				return "", errNoMatch
			}},
			{Name: "legacy_position", Read: func(ctx context.Context) (string, error) {
				for _, s := range t.scopes() {
					if v, err := firstText(ctx, s, "main h1"); err == nil {
						return v, nil
					}
				}
				text, err := scopeText(ctx, t.card())
				if err != nil {
					return "", err
				}
				first := validate.FirstLine(text)
				name, _, _ := strings.Cut(first, ",")
				return strings.TrimSpace(name), nil
			}},
			{Name: "gallery_label", Read: func(ctx context.Context) (string, error) {
				for _, s := range t.scopes() {
					sel, err := s.FindByMarker(ctx, galleryMarker)
					if err != nil {
						continue
					}
					var found string
					sel.EachWithBreak(func(_ int, sec *goquery.Selection) bool {
						label := strings.ReplaceAll(sec.AttrOr("aria-label", ""), "’", "'")
						if name, _, ok := strings.Cut(label, "'s photos"); ok {
							if name = strings.TrimSpace(name); validate.IsValidName(name) {
								found = name
								return false
							}
						}
						return true
					})
					if found != "" {
						return found, nil
					}
				}
				return "", errNoMatch
			}},
		},
	}
}

// ariaHeading reads the accessible label of the profile heading, e.g. "Sam 27 years".
func ariaHeading(ctx context.Context, s scope.Scope) (name string, age int, ok bool) {
	if s == nil {
		return "", 0, false
	}
	sel, err := s.FindByMarker(ctx, ariaHeadingMarker)
	if err != nil || sel.Length() == 0 {
		return "", 0, false
	}
	return validate.SplitAriaLabel(sel.First().AttrOr("aria-label", ""))
}

func ageChain(t Target, name string) Chain[int] {
	parsed := func(ctx context.Context, s scope.Scope, marker string) (int, error) {
		v, err := firstText(ctx, s, marker)
		if err != nil {
			return 0, err
		}
		n, ok := validate.ParseAge(v)
		if !ok {
			return 0, errNoMatch
		}
		return n, nil
	}
	fromCardText := func(find func(text string) (int, bool)) func(ctx context.Context) (int, error) {
		return func(ctx context.Context) (int, error) {
			text, err := scopeText(ctx, t.card())
			if err != nil {
				return 0, err
			}
			if n, ok := find(text); ok {
				return n, nil
			}
			return 0, errNoMatch
		}
	}

	return Chain[int]{
		Field: "age",
		Valid: validate.IsValidAge,
		Strategies: []Strategy[int]{
			{Name: "card_itemprop", Read: func(ctx context.Context) (int, error) {
				return parsed(ctx, t.card(), ageMarker)
			}},
			{Name: "legacy_position", Read: func(ctx context.Context) (int, error) {
				for _, s := range t.scopes() {
					if n, err := parsed(ctx, s, "main h1 + span"); err == nil {
						return n, nil
					}
				}
				return 0, errNoMatch
			}},
			{Name: "after_name", Read: fromCardText(func(text string) (int, bool) {
				return validate.AgeAfterName(text, name)
			})},
			{Name: "card_token", Read: fromCardText(validate.FindAgeToken)},
			{Name: "aria_label", Read: func(ctx context.Context) (int, error) {
				for _, s := range t.scopes() {
					if _, age, ok := ariaHeading(ctx, s); ok && age > 0 {
						return age, nil
					}
				}
				return 0, errNoMatch
			}},
		},
	}
}
