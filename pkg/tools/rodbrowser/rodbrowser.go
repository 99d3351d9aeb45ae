// Package rodbrowser drives Chrome over the DevTools protocol with go-rod.
//
// It is the alternative to the Playwright engine when no Node driver is
// available or when a running Chrome should be reused via its control URL.
package rodbrowser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Wait strategies applied after navigation.
const (
	WaitLoad             = "load"
	WaitDOMContentLoaded = "domcontentloaded"
	WaitNetworkIdle      = "networkidle"
)

// ErrClosed is returned by operations on a closed Browser.
var ErrClosed = errors.New("browser is closed")

// Options configures Launch.
type Options struct {
	Headless bool

	// BrowserBin is a Chrome/Chromium binary; empty lets rod find or
	// download one.
	BrowserBin string

	// ControlURL connects to an already running Chrome instead of launching.
	ControlURL string

	// Stealth opens the page through go-rod/stealth, masking common
	// automation fingerprints.
	Stealth bool

	// WaitUntil is one of the Wait* constants. Empty means WaitLoad.
	WaitUntil string

	// IdleFor is how long no request may be in flight for WaitNetworkIdle.
	IdleFor time.Duration
}

// Logger is the subset of logging.Logger used here.
type Logger interface {
	Debugf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}

// Browser is one Chrome page. It implements capture.Browser and sync.Locker.
type Browser struct {
	mu sync.Mutex

	opts    Options
	logger  Logger
	lnch    *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page

	closeOnce sync.Once
	closeErr  error
}

// Validate checks opts and fills defaults.
func (o *Options) Validate() error {
	switch o.WaitUntil {
	case "":
		o.WaitUntil = WaitLoad
	case WaitLoad, WaitDOMContentLoaded, WaitNetworkIdle:
	default:
		return fmt.Errorf("invalid wait strategy %q (must be 'load', 'domcontentloaded' or 'networkidle')", o.WaitUntil)
	}
	if o.IdleFor <= 0 {
		o.IdleFor = 500 * time.Millisecond
	}
	return nil
}

// Launch starts Chrome (or connects to opts.ControlURL) and opens a page.
// A nil logger discards output.
func Launch(ctx context.Context, opts Options, logger Logger) (*Browser, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = nopLogger{}
	}

	b := &Browser{opts: opts, logger: logger}

	controlURL := opts.ControlURL
	if controlURL == "" {
		l := launcher.New().
			Context(ctx).
			Headless(opts.Headless).
			Set("disable-blink-features", "AutomationControlled").
			Delete("enable-automation")
		if opts.BrowserBin != "" {
			l = l.Bin(opts.BrowserBin)
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
		b.lnch = l
		logger.Debugf("launched chrome at %s", controlURL)
	}

	b.browser = rod.New().ControlURL(controlURL)
	if err := b.browser.Connect(); err != nil {
		b.cleanupLauncher()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.newPage()
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	b.page = page

	return b, nil
}

func (b *Browser) newPage() (*rod.Page, error) {
	if b.opts.Stealth {
		return stealth.Page(b.browser)
	}
	return b.browser.Page(proto.TargetCreateTarget{})
}

// Lock acquires exclusive use of the page.
func (b *Browser) Lock() { b.mu.Lock() }

// Unlock releases the page.
func (b *Browser) Unlock() { b.mu.Unlock() }

// Navigate loads url and applies the configured wait strategy. The page is
// bound to ctx for the duration of the call.
//
// rod's Navigate returns once the response headers arrive, so the
// domcontentloaded and networkidle waits are subscribed before it is called.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	if b.page == nil {
		return ErrClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := b.page.Context(ctx)

	var wait func()
	switch b.opts.WaitUntil {
	case WaitDOMContentLoaded:
		wait = p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	case WaitNetworkIdle:
		wait = p.WaitRequestIdle(b.opts.IdleFor, nil, nil, nil)
	}

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	if wait == nil {
		if err := p.WaitLoad(); err != nil {
			return fmt.Errorf("waiting for load event: %w", err)
		}
		return nil
	}

	wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	b.logger.Debugf("%s reached %s", url, b.opts.WaitUntil)
	return nil
}

// HTML returns the serialized DOM of the current page.
func (b *Browser) HTML(ctx context.Context) (string, error) {
	if b.page == nil {
		return "", ErrClosed
	}

	html, err := b.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("content retrieval failed: %w", err)
	}
	return html, nil
}

// Close closes the page and the browser connection. A launched Chrome is
// killed and its profile directory removed. Safe to call more than once.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		b.Lock()
		defer b.Unlock()

		var errs []error
		if b.page != nil {
			if err := b.page.Close(); err != nil {
				errs = append(errs, fmt.Errorf("page: %w", err))
			}
			b.page = nil
		}
		if b.browser != nil {
			if err := b.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("browser: %w", err))
			}
		}
		b.cleanupLauncher()
		b.closeErr = errors.Join(errs...)
	})
	return b.closeErr
}

func (b *Browser) cleanupLauncher() {
	if b.lnch != nil {
		b.lnch.Kill()
		b.lnch.Cleanup()
		b.lnch = nil
	}
}
