// Package browser owns the Chrome process and hands out tabs as sessions.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tinderscope/internal/browser/session"
	"github.com/xkilldash9x/tinderscope/internal/config"
)

// ErrManagerClosed is returned by NewSession after Close.
var ErrManagerClosed = errors.New("browser manager is closed")

type flag struct {
	name  string
	value any
}

// allocatorFlags lists the command line switches applied on top of chromedp's defaults.
func allocatorFlags(cfg config.BrowserConfig) ([]flag, error) {
	flags := []flag{
		{"no-sandbox", true},
		{"disable-dev-shm-usage", true},
		{"headless", cfg.Headless},
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		flags = append(flags, flag{"window-size", fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight)})
	}
	if cfg.UserAgent != "" {
		flags = append(flags, flag{"user-agent", cfg.UserAgent})
	}
	if cfg.UserDataDir != "" {
		dir, err := homedir.Expand(cfg.UserDataDir)
		if err != nil {
			return nil, fmt.Errorf("expand user data dir: %w", err)
		}
		flags = append(flags, flag{"user-data-dir", dir})
	}
	return flags, nil
}

// AllocatorOptions builds the exec allocator options for cfg.
func AllocatorOptions(cfg config.BrowserConfig) ([]chromedp.ExecAllocatorOption, error) {
	flags, err := allocatorFlags(cfg)
	if err != nil {
		return nil, err
	}
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range flags {
		opts = append(opts, chromedp.Flag(f.name, f.value))
	}
	if cfg.ExecPath != "" {
		path, err := homedir.Expand(cfg.ExecPath)
		if err != nil {
			return nil, fmt.Errorf("expand exec path: %w", err)
		}
		opts = append(opts, chromedp.ExecPath(path))
	}
	return opts, nil
}

// contextOptions routes chromedp's internal logging through zap.
func contextOptions(cfg config.BrowserConfig, logger *zap.Logger) []chromedp.ContextOption {
	sugar := logger.Named("cdp").Sugar()
	opts := []chromedp.ContextOption{
		chromedp.WithLogf(sugar.Infof),
		chromedp.WithErrorf(sugar.Warnf),
	}
	if cfg.Debug {
		opts = append(opts, chromedp.WithDebugf(sugar.Debugf))
	}
	return opts
}

// Manager runs one browser process. Sessions are tabs inside it.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*session.Session
	closed   bool
}

// NewManager launches the browser. The process lives until Close or until ctx is canceled.
func NewManager(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Manager, error) {
	log := logger.Named("browser_manager")
	opts, err := AllocatorOptions(cfg)
	if err != nil {
		return nil, err
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, contextOptions(cfg, log)...)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	log.Info("Browser launched.", zap.Bool("headless", cfg.Headless))

	return &Manager{
		cfg:           cfg,
		logger:        log,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		sessions:      make(map[string]*session.Session),
	}, nil
}

// NewSession opens a tab.
func (m *Manager) NewSession(ctx context.Context) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrManagerClosed
	}

	tabCtx, cancel := chromedp.NewContext(m.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	s := session.New(tabCtx, cancel, session.Config{NavigationTimeout: m.cfg.NavigationTimeout}, m.logger)
	id := s.ID()
	s.SetOnClose(func() {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
	})
	m.sessions[id] = s
	m.logger.Debug("Tab opened.", zap.String("session_id", id))
	return s, nil
}

// Close closes every tab and shuts the browser down.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	open := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		_ = s.Close()
	}

	err := chromedp.Cancel(m.browserCtx)
	m.browserCancel()
	m.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Warn("Browser did not shut down cleanly.", zap.Error(err))
		return err
	}
	m.logger.Info("Browser closed.")
	return nil
}
