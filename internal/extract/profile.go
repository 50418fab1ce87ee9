package extract

import (
	"context"
	"errors"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tinderscope/api/schemas"
	"github.com/xkilldash9x/tinderscope/internal/scope"
	"github.com/xkilldash9x/tinderscope/internal/validate"
	"github.com/xkilldash9x/tinderscope/internal/wait"
)

// ErrNoProfileData means no valid name could be read, so nothing was extracted.
var ErrNoProfileData = errors.New("extract: no profile data")

// Config tunes image collection.
type Config struct {
	// HostMarkers restrict image URLs to the profile photo CDN.
	HostMarkers []string
	// Exhaustive merges every image tier instead of stopping at the first productive one.
	Exhaustive bool
	// TabSettle is the pause after selecting a photo tab.
	TabSettle time.Duration
	Clock     wait.Clock
}

// DefaultConfig returns the extraction defaults.
func DefaultConfig() Config {
	return Config{
		HostMarkers: validate.DefaultImageHostMarkers,
		TabSettle:   200 * time.Millisecond,
		Clock:       wait.RealClock,
	}
}

// Extractor assembles profiles. It holds no per-profile state.
type Extractor struct {
	cfg    Config
	logger *zap.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(cfg Config, logger *zap.Logger) *Extractor {
	if cfg.Clock == nil {
		cfg.Clock = wait.RealClock
	}
	if cfg.HostMarkers == nil {
		cfg.HostMarkers = validate.DefaultImageHostMarkers
	}
	return &Extractor{cfg: cfg, logger: logger.Named("extractor")}
}

// Extract reads every field of the profile shown in t. Individual fields that cannot
// be read are left empty; only a missing name fails the extraction.
func (e *Extractor) Extract(ctx context.Context, t Target) (*schemas.ExtractedProfile, error) {
	if t.Scope == nil {
		return nil, ErrNoProfileData
	}
	name, ok := nameChain(t).Run(ctx, e.logger)
	if !ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoProfileData
	}

	p := &schemas.ExtractedProfile{Name: name}
	if age, ok := ageChain(t, name).Run(ctx, e.logger); ok {
		p.Age = &age
	}

	rows := newRowChains(t)
	p.Work, _ = rowChain(rows, "work", nonEmpty, func(f rowFields) string { return f.Work }).Run(ctx, e.logger)
	p.Study, _ = rowChain(rows, "study", nonEmpty, func(f rowFields) string { return f.Study }).Run(ctx, e.logger)
	p.Home, _ = rowChain(rows, "home", nonEmpty, func(f rowFields) string { return f.Home }).Run(ctx, e.logger)
	p.Gender, _ = rowChain(rows, "gender", nonEmpty, func(f rowFields) string { return f.Gender }).Run(ctx, e.logger)
	p.Distance, _ = rowChain(rows, "distance", validInt, func(f rowFields) *int { return f.Distance }).Run(ctx, e.logger)
	p.HeightCm, _ = rowChain(rows, "heightCm", validInt, func(f rowFields) *int { return f.HeightCm }).Run(ctx, e.logger)
	p.Verified, _ = flagChain(t, "verified", "photo verified").Run(ctx, e.logger)
	p.RecentlyActive, _ = flagChain(t, "recentlyActive", "recently active").Run(ctx, e.logger)

	e.readSections(ctx, t, p)

	text, _ := t.Scope.TextContent(ctx)
	p.Socials = socialsFrom(p.Bio, t.links(ctx), text)

	ic := imageCollector{t: t, cfg: e.cfg, filter: validate.ImageFilter{HostMarkers: e.cfg.HostMarkers}, logger: e.logger}
	p.ImageURLs = ic.collect(ctx)

	p.ID = uuid.NewString()
	if len(p.ImageURLs) > 0 {
		if id, ok := validate.ProfileIDFromImage(p.ImageURLs[0]); ok {
			p.ID = id
		}
	}
	p.ExtractedAt = e.cfg.Clock.Now().UTC()

	normalizeLists(p)
	e.logger.Debug("Extracted profile.",
		zap.String("id", p.ID),
		zap.String("name", p.Name),
		zap.Int("images", len(p.ImageURLs)),
		zap.Bool("verified", p.Verified))
	return p, nil
}

type sectionReader func(ctx context.Context) (sectionData, error)

// sectionChain reads one field from the parsed sections of each scope in turn,
// followed by any extra strategies.
func sectionChain[T any](field string, readers []sectionReader, valid func(T) bool, pick func(sectionData) T, extra ...Strategy[T]) Chain[T] {
	c := Chain[T]{Field: field, Valid: valid}
	for i, read := range readers {
		read := read
		c.Strategies = append(c.Strategies, Strategy[T]{Name: sourceName(i), Read: func(ctx context.Context) (T, error) {
			d, err := read(ctx)
			return pick(d), err
		}})
	}
	c.Strategies = append(c.Strategies, extra...)
	return c
}

// readSections fills the section-backed fields, reading the resolved scope first,
// then the card, then the legacy layout.
func (e *Extractor) readSections(ctx context.Context, t Target, p *schemas.ExtractedProfile) {
	var readers []sectionReader
	for _, s := range t.scopes() {
		s := s
		var (
			done bool
			data sectionData
			err  error
		)
		readers = append(readers, func(ctx context.Context) (sectionData, error) {
			if !done {
				data, err = readRoot(ctx, s, parseSections)
				done = true
			}
			return data, err
		})
	}
	legacy := func(ctx context.Context) (legacyData, error) { return readRoot(ctx, t.Scope, parseLegacy) }
	legacyBio := Strategy[string]{Name: "legacy", Read: func(ctx context.Context) (string, error) {
		d, err := legacy(ctx)
		return d.bio, err
	}}
	legacyPassions := Strategy[[]string]{Name: "legacy", Read: func(ctx context.Context) ([]string, error) {
		d, err := legacy(ctx)
		return d.passions, err
	}}

	p.Bio, _ = sectionChain(
		"bio", readers, nonEmpty, func(d sectionData) string { return d.bio }, legacyBio,
	).Run(ctx, e.logger)
	p.LookingFor, _ = sectionChain(
		"lookingFor", readers, nonEmpty, func(d sectionData) string { return d.lookingFor },
	).Run(ctx, e.logger)
	p.LookingForTags, _ = sectionChain(
		"lookingForTags", readers, nonEmptyList, func(d sectionData) []string { return d.lookingForTags },
	).Run(ctx, e.logger)
	p.Passions, _ = sectionChain(
		"passions", readers, nonEmptyList, func(d sectionData) []string { return d.passions }, legacyPassions,
	).Run(ctx, e.logger)
	p.Lifestyle, _ = sectionChain(
		"lifestyle", readers, nonEmptyList, func(d sectionData) []string { return d.lifestyle },
	).Run(ctx, e.logger)
	p.Basics, _ = sectionChain(
		"basics", readers, nonEmptyList, func(d sectionData) []string { return d.basics },
	).Run(ctx, e.logger)
	p.Anthem, _ = sectionChain(
		"anthem", readers, func(a *schemas.Anthem) bool { return a != nil && a.Song != "" },
		func(d sectionData) *schemas.Anthem { return d.anthem },
	).Run(ctx, e.logger)
	p.Prompts, _ = sectionChain(
		"prompts", readers, func(ps []schemas.Prompt) bool { return len(ps) > 0 },
		func(d sectionData) []schemas.Prompt { return d.prompts },
	).Run(ctx, e.logger)
}

func sourceName(i int) string {
	if i == 0 {
		return "sections"
	}
	return "card_sections"
}

func readRoot[T any](ctx context.Context, s scope.Scope, parse func(*goquery.Selection) T) (T, error) {
	var zero T
	if s == nil {
		return zero, errNoMatch
	}
	root, err := s.Root(ctx)
	if err != nil {
		return zero, err
	}
	return parse(root), nil
}

// normalizeLists replaces nil slices with empty ones so records serialize uniformly.
func normalizeLists(p *schemas.ExtractedProfile) {
	for _, l := range []*[]string{&p.Passions, &p.Lifestyle, &p.Basics, &p.LookingForTags, &p.ImageURLs, &p.Socials.Links} {
		if *l == nil {
			*l = []string{}
		}
	}
	if p.Prompts == nil {
		p.Prompts = []schemas.Prompt{}
	}
}
