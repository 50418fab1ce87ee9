package extract

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tinderscope/internal/browser/dom"
	"github.com/xkilldash9x/tinderscope/internal/scope"
	"github.com/xkilldash9x/tinderscope/internal/validate"
	"github.com/xkilldash9x/tinderscope/internal/wait"
)

// clickTabScript selects the photo tab at the given index.
const clickTabScript = `
  const tabs = root.querySelectorAll("[role='tablist'] button[aria-controls]");
  const tab = tabs[%d];
  if (!tab) { return false; }
  tab.click();
  return true;`

type imageCollector struct {
	t      Target
	cfg    Config
	filter validate.ImageFilter
	logger *zap.Logger
}

// collect returns the profile photo URLs in discovery order. By default it stops
// at the first tier that yields anything; exhaustive mode merges every tier.
func (ic imageCollector) collect(ctx context.Context) []string {
	tiers := []Strategy[[]string]{
		{Name: "card_photos", Read: ic.cardPhotos},
		{Name: "carousel", Read: ic.carousel},
		{Name: "img_tags", Read: ic.imgTags},
	}

	if ic.cfg.Exhaustive {
		var all validate.OrderedSet
		for _, tier := range tiers {
			urls, err := attempt(ctx, tier)
			if err != nil {
				ic.logger.Debug("Image tier failed.", zap.String("tier", tier.Name), zap.Error(err))
				continue
			}
			all.AddAll(urls...)
		}
		return all.Items()
	}

	urls, ok := Chain[[]string]{Field: "imageUrls", Strategies: tiers, Valid: nonEmptyList}.Run(ctx, ic.logger)
	if !ok {
		return []string{}
	}
	return urls
}

// backgrounds adds the filtered inline background image of every element in sel.
func (ic imageCollector) backgrounds(set *validate.OrderedSet, sel *goquery.Selection) {
	sel.Each(func(_ int, el *goquery.Selection) {
		if u, ok := dom.BackgroundImageURL(el.AttrOr("style", "")); ok && ic.filter.Allow(u) {
			set.Add(u)
		}
	})
}

func (ic imageCollector) find(ctx context.Context, s scope.Scope, marker string) *goquery.Selection {
	sel, err := s.FindByMarker(ctx, marker)
	if err != nil {
		return &goquery.Selection{}
	}
	return sel
}

func (ic imageCollector) cardPhotos(ctx context.Context) ([]string, error) {
	card := ic.t.card()
	if card == nil {
		return nil, errNoMatch
	}
	var set validate.OrderedSet
	ic.backgrounds(&set, ic.find(ctx, card, cardPhotoMarker))
	return set.Items(), nil
}

// carousel steps through the photo tabs of the scope so lazily loaded slides render,
// then sweeps the slider and any remaining background images.
func (ic imageCollector) carousel(ctx context.Context) ([]string, error) {
	s := ic.t.Scope
	if s == nil {
		return nil, errNoMatch
	}
	var set validate.OrderedSet
	tabs := ic.find(ctx, s, photoTabMarker).Length()
	for i := 0; i < tabs; i++ {
		var clicked bool
		if err := s.RunScript(ctx, fmt.Sprintf(clickTabScript, i), &clicked); err != nil {
			ic.logger.Debug("Photo tab click failed.", zap.Int("tab", i), zap.Error(err))
			continue
		}
		if !clicked {
			continue
		}
		if err := wait.Sleep(ctx, ic.cfg.Clock, ic.cfg.TabSettle); err != nil {
			return set.Items(), err
		}
		ic.backgrounds(&set, ic.find(ctx, s, activeSlideMarker))
	}
	ic.backgrounds(&set, ic.find(ctx, s, sliderMarker))
	ic.backgrounds(&set, ic.find(ctx, s, backgroundMarker))
	return set.Items(), nil
}

func (ic imageCollector) imgTags(ctx context.Context) ([]string, error) {
	s := ic.t.Scope
	if s == nil {
		return nil, errNoMatch
	}
	var set validate.OrderedSet
	ic.find(ctx, s, imageMarker).Each(func(_ int, img *goquery.Selection) {
		if src := img.AttrOr("src", ""); ic.filter.Allow(src) {
			set.Add(src)
		}
	})
	return set.Items(), nil
}
