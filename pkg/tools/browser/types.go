package browser

import (
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session is a named Playwright browser with a single page.
//
// A Session implements sync.Locker. Holders of the lock have exclusive use
// of the page; callers that navigate and then read must hold it across
// both steps.
type Session struct {
	// Name is the unique identifier for this session
	Name string

	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page

	Headless  bool
	CreatedAt time.Time

	waitUntil string
	timeout   float64

	mu sync.Mutex

	stateMu    sync.Mutex
	lastUsedAt time.Time
	currentURL string
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout is the default operation timeout in milliseconds
	Timeout float64

	// WaitUntil is the navigation completion event:
	// "load", "domcontentloaded" or "networkidle"
	WaitUntil string

	// ExecutablePath launches a specific Chromium build instead of the
	// Playwright-managed one
	ExecutablePath string
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// SessionInfo is a point-in-time description of a session.
type SessionInfo struct {
	Name       string
	CurrentURL string
	Headless   bool
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Default values for various operations
const (
	DefaultTimeout        = 30000.0 // milliseconds
	DefaultWaitUntil      = "load"
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSessions    = 5
	DefaultIdleTimeout    = 5 * time.Minute
	DefaultSessionName    = "default"
)
