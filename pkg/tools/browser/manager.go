package browser

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// SessionManager owns the Playwright driver and the named sessions
// launched through it.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	playwright  *playwright.Playwright
	maxSessions int
	idleTimeout time.Duration
	initialized bool
	onClose     func(*Session)
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		maxSessions: DefaultMaxSessions,
		idleTimeout: DefaultIdleTimeout,
	}
}

// Initialize installs (if needed) and starts the Playwright driver.
// It is safe to call more than once.
func (m *SessionManager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	// Driver output would corrupt the MCP stdio stream.
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = pw
	m.initialized = true
	return nil
}

// StartSession launches Chromium and opens a page under name. The manager
// lock is not held while the browser launches; capacity is checked again
// when the session is registered.
func (m *SessionManager) StartSession(name string, opts SessionOptions) (*Session, error) {
	m.mu.RLock()
	err := m.checkCapacity(name)
	pw, initialized := m.playwright, m.initialized
	m.mu.RUnlock()

	if err != nil {
		return nil, err
	}
	if !initialized {
		return nil, fmt.Errorf("session manager not initialized")
	}

	if opts.Viewport == nil {
		opts.Viewport = &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.ExecutablePath != "" {
		launchOpts.ExecutablePath = playwright.String(opts.ExecutablePath)
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(opts.Timeout)

	session := NewSession(name, page, opts)
	session.Browser = browser
	session.Context = bctx

	if err := m.AddSession(session); err != nil {
		_ = session.close()
		return nil, err
	}
	return session, nil
}

// EnsureSession returns the named session, starting it with opts if it
// does not exist yet.
func (m *SessionManager) EnsureSession(name string, opts SessionOptions) (*Session, error) {
	if session, err := m.GetSession(name); err == nil {
		return session, nil
	}

	if err := m.Initialize(); err != nil {
		return nil, err
	}

	session, err := m.StartSession(name, opts)
	if err != nil {
		// Lost a race with another caller starting the same name.
		if existing, getErr := m.GetSession(name); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return session, nil
}

// AddSession registers a session under its name, subject to the session
// limit. StartSession registers through it too.
func (m *SessionManager) AddSession(session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkCapacity(session.Name); err != nil {
		return err
	}
	m.sessions[session.Name] = session
	return nil
}

// checkCapacity must be called with m.mu held.
func (m *SessionManager) checkCapacity(name string) error {
	if name == "" {
		return fmt.Errorf("session name is required")
	}
	if _, exists := m.sessions[name]; exists {
		return fmt.Errorf("session %q already exists", name)
	}
	if len(m.sessions) >= m.maxSessions {
		return fmt.Errorf("maximum number of sessions (%d) reached", m.maxSessions)
	}
	return nil
}

// CloseSession waits for the session to be idle, closes it and removes it.
func (m *SessionManager) CloseSession(name string) error {
	m.mu.Lock()
	session, exists := m.sessions[name]
	if exists {
		delete(m.sessions, name)
	}
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("session %q not found", name)
	}

	errs := session.close()
	m.notifyClosed(session)
	if len(errs) > 0 {
		return fmt.Errorf("closing session %q: %w", name, errors.Join(errs...))
	}
	return nil
}

// GetSession retrieves an active session by name.
func (m *SessionManager) GetSession(name string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[name]
	if !exists {
		return nil, fmt.Errorf("session %q not found", name)
	}

	return session, nil
}

// ListSessions returns information about all active sessions, by name.
func (m *SessionManager) ListSessions() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, session := range m.sessions {
		infos = append(infos, session.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos
}

// HasSessions returns true if there are any active sessions.
func (m *SessionManager) HasSessions() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions) > 0
}

// CloseAll closes all active sessions.
func (m *SessionManager) CloseAll() error {
	return m.closeWhere(func(*Session) bool { return true })
}

// CleanupIdleSessions closes sessions unused for longer than the idle timeout.
func (m *SessionManager) CleanupIdleSessions() error {
	m.mu.RLock()
	cutoff := time.Now().Add(-m.idleTimeout)
	m.mu.RUnlock()

	return m.closeWhere(func(s *Session) bool {
		return s.idleSince().Before(cutoff)
	})
}

func (m *SessionManager) closeWhere(match func(*Session) bool) error {
	m.mu.Lock()
	var victims []*Session
	for name, session := range m.sessions {
		if match(session) {
			victims = append(victims, session)
			delete(m.sessions, name)
		}
	}
	m.mu.Unlock()

	var errs []error
	for _, session := range victims {
		errs = append(errs, session.close()...)
		m.notifyClosed(session)
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sessions: %w", errors.Join(errs...))
	}
	return nil
}

// Shutdown closes all sessions and stops the Playwright driver.
func (m *SessionManager) Shutdown() error {
	closeErr := m.CloseAll()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		m.initialized = false
	}

	return closeErr
}

// SetMaxSessions sets the maximum number of concurrent sessions.
func (m *SessionManager) SetMaxSessions(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSessions = max
}

// SetIdleTimeout sets the idle timeout duration.
func (m *SessionManager) SetIdleTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idleTimeout = timeout
}

// OnSessionClosed registers fn to run after a session is closed and removed.
func (m *SessionManager) OnSessionClosed(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClose = fn
}

func (m *SessionManager) notifyClosed(s *Session) {
	m.mu.RLock()
	fn := m.onClose
	m.mu.RUnlock()

	if fn != nil {
		fn(s)
	}
}
