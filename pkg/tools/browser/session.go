package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// NewSession wraps an existing page. The manager uses it for pages it
// launched; tests use it with stub pages.
func NewSession(name string, page playwright.Page, opts SessionOptions) *Session {
	now := time.Now()
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.WaitUntil == "" {
		opts.WaitUntil = DefaultWaitUntil
	}
	return &Session{
		Name:       name,
		Page:       page,
		Headless:   opts.Headless,
		CreatedAt:  now,
		waitUntil:  opts.WaitUntil,
		timeout:    opts.Timeout,
		lastUsedAt: now,
		currentURL: "about:blank",
	}
}

// Lock acquires exclusive use of the session's page.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's page.
func (s *Session) Unlock() { s.mu.Unlock() }

// Navigate loads url and waits for the configured load event.
//
// The remaining ctx deadline, if shorter than the session timeout, becomes
// the Playwright timeout. If ctx is done first, Navigate returns ctx.Err()
// and the in-flight Playwright call is left to time out on its own.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.touch("")

	waitUntil := playwright.WaitUntilState(s.waitUntil)
	timeout := s.timeoutFor(ctx)
	opts := playwright.PageGotoOptions{
		WaitUntil: &waitUntil,
		Timeout:   &timeout,
	}

	_, err := await(ctx, func() (playwright.Response, error) {
		return s.Page.Goto(url, opts)
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	s.touch(s.Page.URL())
	return nil
}

// HTML returns the serialized DOM of the current page.
func (s *Session) HTML(ctx context.Context) (string, error) {
	s.touch("")

	content, err := await(ctx, s.Page.Content)
	if err != nil {
		return "", fmt.Errorf("content retrieval failed: %w", err)
	}
	return content, nil
}

// Title returns the current page title.
func (s *Session) Title(ctx context.Context) (string, error) {
	return await(ctx, s.Page.Title)
}

// Info returns a snapshot of the session's state.
func (s *Session) Info() SessionInfo {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	return SessionInfo{
		Name:       s.Name,
		CurrentURL: s.currentURL,
		Headless:   s.Headless,
		CreatedAt:  s.CreatedAt,
		LastUsedAt: s.lastUsedAt,
	}
}

// close releases Playwright resources. Errors are collected, not fatal.
func (s *Session) close() []error {
	s.Lock()
	defer s.Unlock()

	var errs []error
	if s.Page != nil {
		if err := s.Page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("page: %w", err))
		}
	}
	if s.Context != nil {
		if err := s.Context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("context: %w", err))
		}
	}
	if s.Browser != nil {
		if err := s.Browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("browser: %w", err))
		}
	}
	return errs
}

func (s *Session) touch(url string) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	s.lastUsedAt = time.Now()
	if url != "" {
		s.currentURL = url
	}
}

func (s *Session) idleSince() time.Time {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.lastUsedAt
}

// timeoutFor converts the ctx deadline into a Playwright timeout in
// milliseconds, capped at the session default.
func (s *Session) timeoutFor(ctx context.Context) float64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return s.timeout
	}

	remaining := float64(time.Until(deadline).Milliseconds())
	if remaining < 1 {
		remaining = 1
	}
	if remaining < s.timeout {
		return remaining
	}
	return s.timeout
}

// await runs fn and returns its result, or ctx.Err() if ctx finishes first.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
