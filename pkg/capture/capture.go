package capture

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
)

// Capturer runs navigate, extract and persist against one browser handle.
// It is safe for concurrent use; captures sharing a Capturer (or a Browser
// that implements sync.Locker) never interleave their navigate/extract steps.
type Capturer struct {
	browser  Browser
	fs       Filesystem
	logger   Logger
	observer Observer

	// mu serializes the navigate/extract span when browser has no lock of its own
	mu sync.Mutex
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithLogger routes state transitions and failures to logger.
func WithLogger(logger Logger) Option {
	return func(c *Capturer) {
		c.logger = logger
	}
}

// WithObserver registers a callback for every state transition.
func WithObserver(observer Observer) Option {
	return func(c *Capturer) {
		c.observer = observer
	}
}

// New creates a Capturer bound to an explicit browser handle and filesystem.
func New(browser Browser, fs Filesystem, opts ...Option) (*Capturer, error) {
	if browser == nil {
		return nil, fmt.Errorf("browser cannot be nil")
	}
	if fs == nil {
		return nil, fmt.Errorf("filesystem cannot be nil")
	}

	c := &Capturer{
		browser: browser,
		fs:      fs,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Capture navigates to req.URL, reads the page HTML and writes it to
// req.FilePath. Every failure is returned as an *Error.
//
// Nothing is retried. A directory created before a failed write is left in place.
func (c *Capturer) Capture(ctx context.Context, req Request) (*Result, error) {
	run := &run{c: c, req: req, state: StateNotStarted}

	if req.URL == "" {
		return nil, run.fail(&Error{Kind: KindInvalidInput, Op: "validate", Err: errors.New("url cannot be empty")})
	}
	if req.FilePath == "" {
		return nil, run.fail(&Error{Kind: KindInvalidInput, Op: "validate", URL: req.URL, Err: errors.New("file path cannot be empty")})
	}
	if req.Mode == "" {
		req.Mode = ModeOverwrite
		run.req.Mode = ModeOverwrite
	}
	if req.Mode != ModeOverwrite && req.Mode != ModeAppend {
		return nil, run.fail(&Error{Kind: KindInvalidInput, Op: "validate", URL: req.URL, Err: fmt.Errorf("unsupported mode %q", req.Mode)})
	}

	content, err := c.fetch(ctx, run)
	if err != nil {
		return nil, err
	}

	if err := checkContext(ctx, run, "mkdir"); err != nil {
		return nil, err
	}
	// filepath.Dir of a bare filename is "."; the working directory always exists
	if dir := filepath.Dir(req.FilePath); dir != "." {
		if err := c.fs.EnsureDir(ctx, dir); err != nil {
			return nil, run.fail(stepError(KindFilesystem, "mkdir", req, err))
		}
	}

	if err := checkContext(ctx, run, "write"); err != nil {
		return nil, err
	}
	info, err := c.fs.WriteFile(ctx, req.FilePath, content, req.Mode)
	if err != nil {
		return nil, run.fail(stepError(KindFilesystem, "write", req, err))
	}
	run.advance(StatePersisted)

	if c.logger != nil {
		c.logger.Infof("saved %d bytes from %s to %s (%s)", info.Bytes, req.URL, req.FilePath, req.Mode)
	}

	return &Result{
		URL:     req.URL,
		Path:    req.FilePath,
		AbsPath: info.AbsPath,
		Mode:    req.Mode,
		Bytes:   info.Bytes,
		Created: info.Created,
	}, nil
}

// fetch performs navigate and extract while holding the browser lock.
func (c *Capturer) fetch(ctx context.Context, run *run) (string, error) {
	lock := c.lockFor()
	lock.Lock()
	defer lock.Unlock()

	if err := checkContext(ctx, run, "navigate"); err != nil {
		return "", err
	}
	if err := c.browser.Navigate(ctx, run.req.URL); err != nil {
		return "", run.fail(stepError(KindNavigation, "navigate", run.req, err))
	}
	run.advance(StateNavigated)

	if err := checkContext(ctx, run, "extract"); err != nil {
		return "", err
	}
	content, err := c.browser.HTML(ctx)
	if err != nil {
		return "", run.fail(stepError(KindExtraction, "extract", run.req, err))
	}
	run.advance(StateExtracted)

	return content, nil
}

func (c *Capturer) lockFor() sync.Locker {
	if l, ok := c.browser.(sync.Locker); ok {
		return l
	}
	return &c.mu
}

// Execute is the string-returning form of Capture. mode accepts the values
// understood by ParseMode. The result is always a display message; use
// Capture when the caller needs to branch on the failure kind.
func (c *Capturer) Execute(ctx context.Context, url, filePath, mode string) string {
	m, err := ParseMode(mode)
	if err != nil {
		return Describe(nil, &Error{Kind: KindInvalidInput, Op: "validate", URL: url, Err: err})
	}

	result, err := c.Capture(ctx, Request{URL: url, FilePath: filePath, Mode: m})
	return Describe(result, err)
}

// Describe renders the outcome of a capture as a single human-readable line.
func Describe(result *Result, err error) string {
	if err != nil {
		return fmt.Sprintf("Error saving file: %v", err)
	}
	if result == nil {
		return "Error saving file: no result"
	}
	return fmt.Sprintf("Content successfully saved to %s", result.Path)
}

// run tracks the state of a single Capture call.
type run struct {
	c     *Capturer
	req   Request
	state State
}

func (r *run) advance(to State) {
	from := r.state
	r.state = to

	if r.c.logger != nil {
		r.c.logger.Debugf("capture %s: %s -> %s", r.req.URL, from, to)
	}
	if r.c.observer != nil {
		r.c.observer(Transition{Request: r.req, From: from, To: to})
	}
}

func (r *run) fail(err *Error) error {
	from := r.state
	r.state = StateFailed

	if r.c.logger != nil {
		r.c.logger.Errorf("capture %s: %s -> failed (%s): %v", r.req.URL, from, err.Kind, err.Err)
	}
	if r.c.observer != nil {
		r.c.observer(Transition{Request: r.req, From: from, To: StateFailed, Err: err})
	}
	return err
}

func checkContext(ctx context.Context, r *run, op string) error {
	if err := ctx.Err(); err != nil {
		return r.fail(&Error{Kind: KindCanceled, Op: op, URL: r.req.URL, Path: r.req.FilePath, Err: err})
	}
	return nil
}
