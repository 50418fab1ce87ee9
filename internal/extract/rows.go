package extract

import (
	"context"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/tinderscope/internal/browser/dom"
	"github.com/xkilldash9x/tinderscope/internal/validate"
)

// rowFields are the short facts shown as icon rows on a card or as essentials items.
type rowFields struct {
	Work     string
	Study    string
	Home     string
	Gender   string
	Distance *int
	HeightCm *int
}

type rowReader func(ctx context.Context) (rowFields, error)

// once memoizes a reader so every field chain shares one pass over the DOM.
func once(read rowReader) rowReader {
	var (
		done bool
		v    rowFields
		err  error
	)
	return func(ctx context.Context) (rowFields, error) {
		if !done {
			v, err = read(ctx)
			done = true
		}
		return v, err
	}
}

// rowChains builds one chain per row field over the three row sources:
// icon fingerprints, free row text and the essentials list.
type rowChains struct {
	sources []Strategy[rowFields]
}

func newRowChains(t Target) rowChains {
	return rowChains{sources: []Strategy[rowFields]{
		{Name: "structural", Read: once(func(ctx context.Context) (rowFields, error) { return structuralRows(ctx, t) })},
		{Name: "row_text", Read: once(func(ctx context.Context) (rowFields, error) { return textRows(ctx, t) })},
		{Name: "essentials", Read: once(func(ctx context.Context) (rowFields, error) { return essentialsRows(ctx, t) })},
	}}
}

func rowChain[T any](rc rowChains, field string, valid func(T) bool, pick func(rowFields) T) Chain[T] {
	c := Chain[T]{Field: field, Valid: valid}
	for _, src := range rc.sources {
		src := src
		c.Strategies = append(c.Strategies, Strategy[T]{Name: src.Name, Read: func(ctx context.Context) (T, error) {
			f, err := src.Read(ctx)
			if err != nil {
				var zero T
				return zero, err
			}
			return pick(f), nil
		}})
	}
	return c
}

func validInt(p *int) bool { return p != nil }

func stripLivesIn(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), "lives in ") {
		s = strings.TrimSpace(s[len("lives in "):])
	}
	return s
}

func oneLine(s string) string { return strings.Join(strings.Fields(s), " ") }

func intPtr(n int) *int { return &n }

func structuralRows(ctx context.Context, t Target) (rowFields, error) {
	var f rowFields
	for _, s := range t.scopes() {
		root, err := s.Root(ctx)
		if err != nil {
			continue
		}
		if f.Home == "" {
			f.Home = stripLivesIn(dom.Text(root.Find(homeMarker).First()))
		}
		root.Find(rowMarker).Each(func(_ int, row *goquery.Selection) {
			readIconRow(row, &f)
		})
	}
	return f, nil
}

func readIconRow(row *goquery.Selection, f *rowFields) {
	value := oneLine(dom.XPathText(row, rowValueXPath))
	if value == "" {
		value = dom.Text(row)
	}
	if value == "" {
		return
	}
	icons, err := dom.XPath(row, svgPathXPath)
	if err != nil || len(icons) == 0 {
		return
	}
	switch iconKinds[attr(icons[0], "d")] {
	case rowWork:
		setOnce(&f.Work, value)
	case rowStudy:
		setOnce(&f.Study, value)
	case rowHome:
		setOnce(&f.Home, stripLivesIn(value))
	case rowGender:
		setOnce(&f.Gender, value)
	case rowLocation:
		if f.Distance == nil {
			f.Distance = rowDistance(value)
		}
	}
}

// rowDistance reads a location row, which shows either "N unit away" or "Less than a mile away".
func rowDistance(value string) *int {
	if n, ok := validate.ParseDistance(value); ok {
		return intPtr(n)
	}
	if strings.Contains(strings.ToLower(value), "less than") {
		return intPtr(validate.LessThanSentinel)
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setOnce(dst *string, v string) {
	if *dst == "" {
		*dst = strings.TrimSpace(v)
	}
}

func textRows(ctx context.Context, t Target) (rowFields, error) {
	var f rowFields
	for _, s := range t.scopes() {
		root, err := s.Root(ctx)
		if err != nil {
			continue
		}
		for _, row := range dom.Texts(root.Find(rowMarker)) {
			classifyRowText(row, &f)
		}
		if f.Distance == nil {
			for _, line := range strings.Split(dom.InnerText(root), "\n") {
				if n, ok := validate.ParseDistance(line); ok {
					f.Distance = intPtr(n)
					break
				}
			}
		}
	}
	return f, nil
}

func classifyRowText(text string, f *rowFields) {
	lower := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.HasPrefix(lower, "lives in "):
		setOnce(&f.Home, stripLivesIn(text))
	case validate.HasDistancePhrase(text):
		if f.Distance == nil {
			f.Distance = rowDistance(text)
		}
	case containsExact(genderLabels, lower):
		setOnce(&f.Gender, text)
	case hasInstitution(lower):
		setOnce(&f.Study, text)
	case strings.Contains(lower, " at "):
		setOnce(&f.Work, text)
	}
}

func essentialsRows(ctx context.Context, t Target) (rowFields, error) {
	var f rowFields
	for _, s := range t.scopes() {
		root, err := s.Root(ctx)
		if err != nil {
			continue
		}
		parsed := parseSections(root)
		for _, item := range parsed.essentials {
			classifyEssential(item, &f)
		}
	}
	return f, nil
}

// classifyEssential files one essentials item. Items with no digit and at most four
// words that match no other category are taken to be a job title.
func classifyEssential(item string, f *rowFields) {
	lower := strings.ToLower(strings.TrimSpace(item))
	if h, ok := validate.ParseHeightCm(item); ok {
		if f.HeightCm == nil {
			f.HeightCm = intPtr(h)
		}
		return
	}
	switch {
	case hasInstitution(lower):
		setOnce(&f.Study, item)
	case strings.HasPrefix(lower, "lives in "):
		setOnce(&f.Home, stripLivesIn(item))
	case validate.HasDistancePhrase(item):
		if f.Distance == nil {
			f.Distance = rowDistance(item)
		}
	case containsExact(essentialsGenderLabels, lower):
		setOnce(&f.Gender, item)
	case !hasDigit(item) && len(strings.Fields(item)) <= 4:
		setOnce(&f.Work, item)
	}
}

func hasInstitution(lower string) bool {
	for _, kw := range institutionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func containsExact(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// flagChain reports whether any scope shows phrase, in an svg title or in its text.
func flagChain(t Target, field, phrase string) Chain[bool] {
	has := func(texts ...string) bool {
		for _, txt := range texts {
			if strings.Contains(strings.ToLower(txt), phrase) {
				return true
			}
		}
		return false
	}
	return Chain[bool]{
		Field: field,
		Valid: func(b bool) bool { return b },
		Strategies: []Strategy[bool]{
			{Name: "title", Read: func(ctx context.Context) (bool, error) {
				for _, s := range t.scopes() {
					sel, err := s.FindByMarker(ctx, "title")
					if err == nil && has(dom.Texts(sel)...) {
						return true, nil
					}
				}
				return false, nil
			}},
			{Name: "text", Read: func(ctx context.Context) (bool, error) {
				for _, s := range t.scopes() {
					text, err := s.TextContent(ctx)
					if err == nil && has(text) {
						return true, nil
					}
				}
				return false, nil
			}},
		},
	}
}
