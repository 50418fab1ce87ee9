// Package orchestrator drives the resolve, wait, expand, extract and act cycle
// against one browser session.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/tinderscope/api/schemas"
	"github.com/xkilldash9x/tinderscope/internal/extract"
	"github.com/xkilldash9x/tinderscope/internal/scope"
)

// ActionNone extracts without acting on the profile.
const ActionNone schemas.InteractionAction = "none"

// Actor performs swipe actions. interact.Controller satisfies it.
type Actor interface {
	Do(ctx context.Context, action schemas.InteractionAction) bool
}

// InteractionRecorder persists the outcome of an action. store.Store satisfies it.
type InteractionRecorder interface {
	RecordInteraction(ctx context.Context, runID, profileID string, action schemas.InteractionAction, ok bool) error
}

// Config controls a run.
type Config struct {
	Scope scope.Config
	// ReadyTimeout bounds the wait for lazily rendered sections.
	ReadyTimeout time.Duration
	// OpenProfile tries to open the detail overlay before extracting.
	OpenProfile bool
	// RatePerMinute paces actions; zero or less disables pacing.
	RatePerMinute float64
	Burst         int
}

// Summary counts what a run did.
type Summary struct {
	Extracted int
	Failed    int
	Acted     int
	Profiles  []*schemas.ExtractedProfile
}

// Orchestrator wires the resolver, expander, extractor and actor together.
// It is not safe for concurrent use; one orchestrator drives one page.
type Orchestrator struct {
	cfg       Config
	logger    *zap.Logger
	resolver  *scope.Resolver
	expander  *scope.Expander
	extractor *extract.Extractor
	actor     Actor
	sinks     []schemas.ProfileSink
	recorder  InteractionRecorder
	limiter   *rate.Limiter
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithSink adds a destination for every extracted profile.
func WithSink(sink schemas.ProfileSink) Option {
	return func(o *Orchestrator) {
		if sink != nil {
			o.sinks = append(o.sinks, sink)
		}
	}
}

// WithRecorder persists action outcomes.
func WithRecorder(r InteractionRecorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// New creates an orchestrator. actor may be nil when only ScrapeCurrent is used.
func New(
	cfg Config,
	logger *zap.Logger,
	resolver *scope.Resolver,
	extractor *extract.Extractor,
	actor Actor,
	opts ...Option,
) (*Orchestrator, error) {
	if logger == nil || resolver == nil || extractor == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = cfg.Scope.ReadyTimeout
	}
	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Limit(cfg.RatePerMinute / 60)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	logger = logger.Named("orchestrator")
	o := &Orchestrator{
		cfg:       cfg,
		logger:    logger,
		resolver:  resolver,
		expander:  scope.NewExpander(cfg.Scope, logger),
		extractor: extractor,
		actor:     actor,
		limiter:   rate.NewLimiter(limit, cfg.Burst),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// ScrapeCurrent extracts the profile currently on screen. It returns
// scope.ErrNoProfile when no profile is visible and extract.ErrNoProfileData when
// one is visible but yields no name.
func (o *Orchestrator) ScrapeCurrent(ctx context.Context) (*schemas.ExtractedProfile, error) {
	res, err := o.resolver.Resolve(ctx, o.cfg.OpenProfile)
	if err != nil {
		return nil, err
	}
	log := o.logger.With(zap.Stringer("scope", res.Scope.Kind()), zap.Bool("opened", res.Opened))

	if !scope.WaitForContentReady(ctx, res.Scope, o.cfg.ReadyTimeout, o.cfg.Scope) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Info("Profile content not ready before timeout, extracting what is rendered.", zap.Duration("timeout", o.cfg.ReadyTimeout))
	}
	if n := o.expander.ExpandSections(ctx, res.Scope); n > 0 {
		log.Debug("Expanded sections.", zap.Int("count", n))
	}

	p, err := o.extractor.Extract(ctx, extract.Target{Scope: res.Scope, Card: res.Card})
	if err != nil {
		return nil, err
	}
	log.Info("Profile extracted.",
		zap.String("id", p.ID),
		zap.String("name", p.Name),
		zap.Int("images", len(p.ImageURLs)))
	return p, nil
}

// Run processes up to limit profiles. Each profile is extracted, handed to every
// sink and then acted on. The run stops early when no profile is visible. With
// ActionNone only one profile can be processed because nothing advances the stack.
func (o *Orchestrator) Run(ctx context.Context, runID string, limit int, action schemas.InteractionAction) (Summary, error) {
	var sum Summary
	if action == ActionNone && limit > 1 {
		return sum, fmt.Errorf("action %q cannot advance past the first profile", action)
	}
	if action != ActionNone && o.actor == nil {
		return sum, fmt.Errorf("action %q requested without an actor", action)
	}
	o.logger.Info("Run starting.", zap.String("run_id", runID), zap.Int("limit", limit), zap.String("action", string(action)))

	for i := 0; i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		p, err := o.ScrapeCurrent(ctx)
		switch {
		case errors.Is(err, scope.ErrNoProfile):
			o.logger.Info("No more profiles visible.", zap.Int("processed", i))
			return sum, nil
		case errors.Is(err, extract.ErrNoProfileData):
			sum.Failed++
			o.logger.Warn("Profile yielded no data.", zap.Int("index", i))
		case err != nil:
			return sum, err
		default:
			sum.Extracted++
			sum.Profiles = append(sum.Profiles, p)
			o.emit(ctx, runID, p)
		}

		if action == ActionNone {
			continue
		}
		if err := o.limiter.Wait(ctx); err != nil {
			return sum, err
		}
		ok := o.actor.Do(ctx, action)
		if ok {
			sum.Acted++
		}
		if o.recorder != nil && p != nil {
			if err := o.recorder.RecordInteraction(ctx, runID, p.ID, action, ok); err != nil {
				o.logger.Warn("Failed to record interaction.", zap.String("id", p.ID), zap.Error(err))
			}
		}
	}
	o.logger.Info("Run finished.",
		zap.Int("extracted", sum.Extracted),
		zap.Int("failed", sum.Failed),
		zap.Int("acted", sum.Acted))
	return sum, nil
}

func (o *Orchestrator) emit(ctx context.Context, runID string, p *schemas.ExtractedProfile) {
	for _, sink := range o.sinks {
		if err := sink.SaveProfile(ctx, runID, p); err != nil {
			o.logger.Warn("Profile sink failed.", zap.String("id", p.ID), zap.Error(err))
		}
	}
}
