// Package app wires the capture stack together for the command-line and
// MCP front ends: settings, workspace guard, browser engine, html_saver
// tool and the tool registry.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/pagecapture/pkg/agent/tools"
	"github.com/entrhq/pagecapture/pkg/capture"
	"github.com/entrhq/pagecapture/pkg/config"
	"github.com/entrhq/pagecapture/pkg/logging"
	"github.com/entrhq/pagecapture/pkg/security/workspace"
	"github.com/entrhq/pagecapture/pkg/tools/browser"
	"github.com/entrhq/pagecapture/pkg/tools/rodbrowser"
	"github.com/entrhq/pagecapture/pkg/tools/saver"
)

// Options selects the engine and the write policy.
type Options struct {
	Browser config.BrowserSettings

	// WorkspaceDir confines destinations when set; empty writes anywhere
	WorkspaceDir    string
	WhitelistedDirs []string
	AllowedPatterns []string
	DeniedPatterns  []string

	DefaultMode string

	// ControlURL attaches the rod engine to a running Chrome
	ControlURL string
}

// OptionsFromConfig reads the browser and capture sections, falling back to
// their defaults when config is not initialized.
func OptionsFromConfig() Options {
	bs := config.GetBrowser()
	if bs == nil {
		bs = config.NewBrowserSection()
	}
	cs := config.GetCapture()
	if cs == nil {
		cs = config.NewCaptureSection()
	}

	allowed, denied := cs.GetPatterns()
	return Options{
		Browser:         bs.Settings(),
		WorkspaceDir:    cs.GetWorkspaceDir(),
		WhitelistedDirs: cs.GetWhitelistedDirs(),
		AllowedPatterns: allowed,
		DeniedPatterns:  denied,
		DefaultMode:     cs.GetDefaultMode(),
	}
}

// App holds the wired components. Close releases the browser.
type App struct {
	Tool     *saver.Tool
	Registry *tools.Registry

	// Sessions is nil for the rod engine
	Sessions *browser.SessionManager

	// Guard is nil when no workspace is configured
	Guard *workspace.Guard

	logger  *logging.Logger
	closers []func() error
}

// New starts the configured engine and builds the tool set.
func New(ctx context.Context, opts Options, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	switch opts.Browser.Engine {
	case config.EngineRod:
		return newRod(ctx, opts, logger)
	case config.EnginePlaywright, "":
		return newPlaywright(opts, logger)
	default:
		return nil, fmt.Errorf("unknown browser engine %q", opts.Browser.Engine)
	}
}

func newPlaywright(opts Options, logger *logging.Logger) (*App, error) {
	manager := browser.NewSessionManager()
	if opts.Browser.MaxSessions > 0 {
		manager.SetMaxSessions(opts.Browser.MaxSessions)
	}
	if opts.Browser.IdleTimeout > 0 {
		manager.SetIdleTimeout(opts.Browser.IdleTimeout)
	}
	if err := manager.Initialize(); err != nil {
		return nil, err
	}

	a, err := build(saver.SessionResolver(manager, browser.OptionsFromSettings(opts.Browser)), opts, logger)
	if err != nil {
		_ = manager.Shutdown()
		return nil, err
	}
	a.Sessions = manager
	a.closers = append(a.closers, manager.Shutdown)
	manager.OnSessionClosed(func(s *browser.Session) { a.Tool.Forget(s) })

	for _, t := range browser.SessionTools(manager) {
		if err := a.Registry.Register(t); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	logger.Infof("playwright engine ready (headless=%t, wait_until=%s, max_sessions=%d, idle_timeout=%s)",
		opts.Browser.Headless, opts.Browser.WaitUntil, opts.Browser.MaxSessions, opts.Browser.IdleTimeout)
	return a, nil
}

func newRod(ctx context.Context, opts Options, logger *logging.Logger) (*App, error) {
	b, err := rodbrowser.Launch(ctx, rodbrowser.Options{
		Headless:   opts.Browser.Headless,
		BrowserBin: opts.Browser.BrowserBin,
		ControlURL: opts.ControlURL,
		Stealth:    opts.Browser.Stealth,
		WaitUntil:  opts.Browser.WaitUntil,
	}, logger.With("rod"))
	if err != nil {
		return nil, err
	}

	a, err := build(saver.StaticResolver(b), opts, logger)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	a.closers = append(a.closers, b.Close)

	logger.Infof("rod engine ready (headless=%t, stealth=%t)", opts.Browser.Headless, opts.Browser.Stealth)
	return a, nil
}

// errNoBrowser is returned by the resolver of an App built by Preview.
var errNoBrowser = errors.New("no browser: tools were built for preview only")

// Preview builds the html_saver tool and registry without starting a
// browser. Previews work; captures fail.
func Preview(opts Options, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	resolve := func(ctx context.Context, session string) (capture.Browser, error) {
		return nil, errNoBrowser
	}
	return build(resolve, opts, logger)
}

// build assembles everything that does not depend on the engine.
func build(resolve saver.BrowserResolver, opts Options, logger *logging.Logger) (*App, error) {
	fs, guard, err := newFilesystem(opts)
	if err != nil {
		return nil, err
	}

	mode := opts.DefaultMode
	if mode == "" {
		mode = string(capture.ModeOverwrite)
	}

	tool, err := saver.New(resolve, fs,
		saver.WithDefaultMode(mode),
		saver.WithCaptureOptions(capture.WithLogger(logger.With("capture"))),
	)
	if err != nil {
		return nil, err
	}

	registry, err := tools.NewRegistry(tool)
	if err != nil {
		return nil, err
	}

	if guard != nil {
		logger.Infof("destinations confined to %s (whitelist: %v)", guard.WorkspaceDir(), guard.GetWhitelist())
	}

	return &App{Tool: tool, Registry: registry, Guard: guard, logger: logger}, nil
}

func newFilesystem(opts Options) (*capture.OSFilesystem, *workspace.Guard, error) {
	if opts.WorkspaceDir == "" {
		return capture.NewOSFilesystem(nil), nil, nil
	}

	guard, err := workspace.NewGuard(opts.WorkspaceDir, opts.AllowedPatterns, opts.DeniedPatterns)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create workspace guard: %w", err)
	}
	for _, dir := range opts.WhitelistedDirs {
		if err := guard.AddWhitelist(dir); err != nil {
			return nil, nil, fmt.Errorf("failed to whitelist %s: %w", dir, err)
		}
	}
	return capture.NewOSFilesystem(guard), guard, nil
}

// StartJanitor closes idle Playwright sessions every interval until ctx
// ends. It does nothing for the rod engine.
func (a *App) StartJanitor(ctx context.Context, interval time.Duration) {
	if a.Sessions == nil || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !a.Sessions.HasSessions() {
					continue
				}
				if err := a.Sessions.CleanupIdleSessions(); err != nil {
					a.logger.Warnf("idle session cleanup: %v", err)
				}
			}
		}
	}()
}

// Close releases the engine. Safe to call more than once.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
