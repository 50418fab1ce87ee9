package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tinderscope/api/schemas"
	"github.com/xkilldash9x/tinderscope/internal/auth"
	"github.com/xkilldash9x/tinderscope/internal/browser"
	"github.com/xkilldash9x/tinderscope/internal/browser/session"
	"github.com/xkilldash9x/tinderscope/internal/config"
	"github.com/xkilldash9x/tinderscope/internal/credentials"
	"github.com/xkilldash9x/tinderscope/internal/export"
	"github.com/xkilldash9x/tinderscope/internal/extract"
	"github.com/xkilldash9x/tinderscope/internal/interact"
	"github.com/xkilldash9x/tinderscope/internal/orchestrator"
	"github.com/xkilldash9x/tinderscope/internal/scope"
	"github.com/xkilldash9x/tinderscope/internal/store"
)

// -- Config mapping --

func scopeConfig(cfg config.Interface) scope.Config {
	c := scope.DefaultConfig()
	c.HomeURL = cfg.Session().HomeURL
	c.ReadyTimeout = cfg.Extraction().ReadyTimeout
	c.ExpandRuns = cfg.Extraction().ExpandRuns
	return c
}

func extractConfig(cfg config.Interface) extract.Config {
	c := extract.DefaultConfig()
	if markers := cfg.Extraction().ImageHostMarkers; len(markers) > 0 {
		c.HostMarkers = markers
	}
	c.Exhaustive = cfg.Extraction().ExhaustiveImages
	if d := cfg.Extraction().TabSettle; d > 0 {
		c.TabSettle = d
	}
	return c
}

func interactConfig(cfg config.Interface) interact.Config {
	c := interact.DefaultConfig()
	c.HomeURL = cfg.Session().HomeURL
	c.ClickTimeout = cfg.Interaction().ClickTimeout
	if d := cfg.Interaction().Settle; d > 0 {
		c.Settle = d
	}
	return c
}

func authConfig(cfg config.Interface) auth.Config {
	c := auth.DefaultConfig()
	c.LandingURL = cfg.Session().LandingURL
	c.NavigateSettle = cfg.Session().NavigateSettle
	c.ReloadSettle = cfg.Session().ReloadSettle
	return c
}

func orchestratorConfig(cfg config.Interface) orchestrator.Config {
	return orchestrator.Config{
		Scope:         scopeConfig(cfg),
		ReadyTimeout:  cfg.Extraction().ReadyTimeout,
		OpenProfile:   cfg.Extraction().OpenProfile,
		RatePerMinute: cfg.Interaction().RatePerMinute,
		Burst:         cfg.Interaction().Burst,
	}
}

// parseAction maps the --action flag onto an interaction.
func parseAction(s string) (schemas.InteractionAction, error) {
	switch a := schemas.InteractionAction(strings.ToLower(strings.TrimSpace(s))); a {
	case schemas.ActionAccept, schemas.ActionReject, schemas.ActionSuperAccept, orchestrator.ActionNone:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q (want like, nope, superlike or none)", s)
	}
}

// -- Session bootstrap --

// liveSession is a logged-in browser tab and what it takes to tear it down.
type liveSession struct {
	manager *browser.Manager
	page    *session.Session
}

func (l *liveSession) Close() {
	_ = l.page.Close()
	_ = l.manager.Close()
}

// loadCredentials reads the exported cookie and local storage files.
func loadCredentials(ctx context.Context, cfg config.Interface) (schemas.StorageState, error) {
	src := credentials.FileSource{
		CookiePath:       cfg.Session().CookieFile,
		LocalStoragePath: cfg.Session().LocalStorageFile,
	}
	state, err := src.Read(ctx)
	if state.Empty() {
		if err == nil {
			err = credentials.ErrNoCredentials
		}
		return state, fmt.Errorf("no usable credentials in %s or %s (run `tinderscope cookies` first): %w",
			src.CookiePath, src.LocalStoragePath, err)
	}
	return state, nil
}

// openSession launches the browser, installs the saved credentials and lands on the
// home screen.
func (a *app) openSession(ctx context.Context) (*liveSession, error) {
	creds, err := loadCredentials(ctx, a.cfg)
	if err != nil {
		return nil, err
	}

	manager, err := browser.NewManager(ctx, a.cfg.Browser(), a.logger)
	if err != nil {
		return nil, err
	}
	page, err := manager.NewSession(ctx)
	if err != nil {
		_ = manager.Close()
		return nil, err
	}
	live := &liveSession{manager: manager, page: page}

	status, err := auth.NewBootstrapper(page, authConfig(a.cfg), a.logger).Login(ctx, creds)
	if err != nil {
		live.Close()
		if errors.Is(err, auth.ErrNotLoggedIn) {
			return nil, fmt.Errorf("session is not logged in (%s); refresh the cookie files: %w", status, err)
		}
		return nil, err
	}

	home := a.cfg.Session().HomeURL
	if loc, err := page.Location(ctx); err != nil || !strings.HasPrefix(loc, home) {
		if err := page.Navigate(ctx, home); err != nil {
			live.Close()
			return nil, err
		}
	}
	return live, nil
}

// openStore connects to Postgres and applies the schema.
func (a *app) openStore(ctx context.Context) (*store.Store, func(), error) {
	url := a.cfg.Database().URL
	if url == "" {
		return nil, nil, fmt.Errorf("--persist requires database.url (or TINDERSCOPE_DATABASE_URL)")
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	st, err := store.New(ctx, pool, a.logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	a.logger.Debug("Database store ready.")
	return st, pool.Close, nil
}

func (a *app) newOrchestrator(page schemas.Page, actor orchestrator.Actor, opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	resolver := scope.NewResolver(page, scopeConfig(a.cfg), a.logger)
	extractor := extract.NewExtractor(extractConfig(a.cfg), a.logger)
	return orchestrator.New(orchestratorConfig(a.cfg), a.logger, resolver, extractor, actor, opts...)
}

// exportSink streams every profile into an export writer.
type exportSink struct {
	w export.Writer
}

func (s exportSink) SaveProfile(_ context.Context, _ string, p *schemas.ExtractedProfile) error {
	return s.w.Write(p)
}

func logClose(logger *zap.Logger, what string, fn func() error) {
	if err := fn(); err != nil {
		logger.Warn("Failed to close "+what+".", zap.Error(err))
	}
}
