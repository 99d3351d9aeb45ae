package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDBrowser is the identifier for the browser settings section
	SectionIDBrowser = "browser"

	// EnginePlaywright drives the browser through Playwright
	EnginePlaywright = "playwright"

	// EngineRod drives Chrome directly over the DevTools protocol via go-rod
	EngineRod = "rod"

	defaultEngine    = EnginePlaywright
	defaultHeadless  = true
	defaultTimeout   = 30 * time.Second
	defaultWaitUntil = "load"

	defaultIdleTimeout = 5 * time.Minute
	defaultMaxSessions = 5
)

var validWaitStates = map[string]bool{
	"load":             true,
	"domcontentloaded": true,
	"networkidle":      true,
}

// BrowserSection controls how pages are loaded.
type BrowserSection struct {
	Engine     string        `json:"engine"`
	Headless   bool          `json:"headless"`
	Timeout    time.Duration `json:"timeout"`
	WaitUntil  string        `json:"wait_until"`
	BrowserBin string        `json:"browser_bin"`
	Stealth    bool          `json:"stealth"`

	// IdleTimeout and MaxSessions apply to Playwright sessions only
	IdleTimeout time.Duration `json:"idle_timeout"`
	MaxSessions int           `json:"max_sessions"`

	mu sync.RWMutex
}

// NewBrowserSection creates a browser section with default settings.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser Settings"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Browser engine, visibility and page-load behaviour used when capturing pages."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"engine":       s.Engine,
		"headless":     s.Headless,
		"timeout":      s.Timeout.String(),
		"wait_until":   s.WaitUntil,
		"browser_bin":  s.BrowserBin,
		"stealth":      s.Stealth,
		"idle_timeout": s.IdleTimeout.String(),
		"max_sessions": s.MaxSessions,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "engine", "wait_until", "browser_bin":
			str, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for %s: expected string, got %T", key, value)
			}
			switch key {
			case "engine":
				s.Engine = str
			case "wait_until":
				s.WaitUntil = str
			default:
				s.BrowserBin = str
			}

		case "headless", "stealth":
			enabled, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for %s: expected bool, got %T", key, value)
			}
			if key == "headless" {
				s.Headless = enabled
			} else {
				s.Stealth = enabled
			}

		case "timeout", "idle_timeout":
			d, err := parseDuration(key, value)
			if err != nil {
				return err
			}
			if key == "timeout" {
				s.Timeout = d
			} else {
				s.IdleTimeout = d
			}

		case "max_sessions":
			n, err := parseInt(key, value)
			if err != nil {
				return err
			}
			s.MaxSessions = n

		default:
			// Ignore unknown keys for forward compatibility
			continue
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Engine != EnginePlaywright && s.Engine != EngineRod {
		return fmt.Errorf("engine must be %q or %q, got %q", EnginePlaywright, EngineRod, s.Engine)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	if !validWaitStates[s.WaitUntil] {
		return fmt.Errorf("invalid wait_until value: %s (must be 'load', 'domcontentloaded', or 'networkidle')", s.WaitUntil)
	}
	if s.IdleTimeout <= 0 {
		return fmt.Errorf("idle_timeout must be positive, got %s", s.IdleTimeout)
	}
	if s.MaxSessions < 1 {
		return fmt.Errorf("max_sessions must be at least 1, got %d", s.MaxSessions)
	}
	return nil
}

// Reset restores default settings.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Engine = defaultEngine
	s.Headless = defaultHeadless
	s.Timeout = defaultTimeout
	s.WaitUntil = defaultWaitUntil
	s.BrowserBin = ""
	s.Stealth = false
	s.IdleTimeout = defaultIdleTimeout
	s.MaxSessions = defaultMaxSessions
}

// Settings returns a consistent snapshot of the section.
func (s *BrowserSection) Settings() BrowserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return BrowserSettings{
		Engine:      s.Engine,
		Headless:    s.Headless,
		Timeout:     s.Timeout,
		WaitUntil:   s.WaitUntil,
		BrowserBin:  s.BrowserBin,
		Stealth:     s.Stealth,
		IdleTimeout: s.IdleTimeout,
		MaxSessions: s.MaxSessions,
	}
}

// BrowserSettings is an immutable copy of BrowserSection values.
type BrowserSettings struct {
	Engine      string
	Headless    bool
	Timeout     time.Duration
	WaitUntil   string
	BrowserBin  string
	Stealth     bool
	IdleTimeout time.Duration
	MaxSessions int
}

// parseDuration accepts a duration string or a JSON number of nanoseconds.
func parseDuration(key string, value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string for %s: %w", key, err)
		}
		return d, nil
	case float64:
		return time.Duration(v), nil
	case int64:
		return time.Duration(v), nil
	case int:
		return time.Duration(v), nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected string or number, got %T", key, value)
	}
}

// parseInt accepts a whole JSON number.
func parseInt(key string, value interface{}) (int, error) {
	switch v := value.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("invalid value for %s: %v is not a whole number", key, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected number, got %T", key, value)
	}
}
