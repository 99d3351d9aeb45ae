package config

import (
	"fmt"
	"sync"
)

// SectionIDCapture is the identifier for the capture settings section
const SectionIDCapture = "capture"

// CaptureSection controls where and how captured HTML is written.
// AllowedPatterns and DeniedPatterns are globs over the destination file's
// workspace-relative path ('/'-separated); "**/*.html" does not match a file
// at the workspace root.
type CaptureSection struct {
	DefaultMode     string   `json:"default_mode"`
	WorkspaceDir    string   `json:"workspace_dir"`
	WhitelistedDirs []string `json:"whitelisted_dirs"`
	AllowedPatterns []string `json:"allowed_patterns"`
	DeniedPatterns  []string `json:"denied_patterns"`
	mu              sync.RWMutex
}

// NewCaptureSection creates a capture section with default settings.
func NewCaptureSection() *CaptureSection {
	s := &CaptureSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *CaptureSection) ID() string {
	return SectionIDCapture
}

// Title returns the section title.
func (s *CaptureSection) Title() string {
	return "Capture Settings"
}

// Description returns the section description.
func (s *CaptureSection) Description() string {
	return "Default write mode and the directories captured pages may be written to."
}

// Data returns the current configuration data.
func (s *CaptureSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"default_mode":     s.DefaultMode,
		"workspace_dir":    s.WorkspaceDir,
		"whitelisted_dirs": toAnySlice(s.WhitelistedDirs),
		"allowed_patterns": toAnySlice(s.AllowedPatterns),
		"denied_patterns":  toAnySlice(s.DeniedPatterns),
	}
}

// SetData updates the configuration from the provided data.
func (s *CaptureSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "default_mode":
			str, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for default_mode: expected string, got %T", value)
			}
			s.DefaultMode = str

		case "workspace_dir":
			str, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for workspace_dir: expected string, got %T", value)
			}
			s.WorkspaceDir = str

		case "whitelisted_dirs", "allowed_patterns", "denied_patterns":
			list, err := toStringSlice(key, value)
			if err != nil {
				return err
			}
			switch key {
			case "whitelisted_dirs":
				s.WhitelistedDirs = list
			case "allowed_patterns":
				s.AllowedPatterns = list
			default:
				s.DeniedPatterns = list
			}

		default:
			continue
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *CaptureSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.DefaultMode {
	case "", "w", "a", "overwrite", "append":
		return nil
	default:
		return fmt.Errorf("invalid default_mode %q (must be 'w', 'a', 'overwrite' or 'append')", s.DefaultMode)
	}
}

// Reset restores default settings.
func (s *CaptureSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.DefaultMode = "overwrite"
	s.WorkspaceDir = ""
	s.WhitelistedDirs = nil
	s.AllowedPatterns = nil
	s.DeniedPatterns = nil
}

// GetDefaultMode returns the configured default write mode.
func (s *CaptureSection) GetDefaultMode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DefaultMode
}

// GetWorkspaceDir returns the configured workspace root, or "" for none.
func (s *CaptureSection) GetWorkspaceDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.WorkspaceDir
}

// GetWhitelistedDirs returns a copy of the whitelisted directories.
func (s *CaptureSection) GetWhitelistedDirs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.WhitelistedDirs...)
}

// GetPatterns returns copies of the allowed and denied glob patterns.
func (s *CaptureSection) GetPatterns() (allowed, denied []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.AllowedPatterns...), append([]string(nil), s.DeniedPatterns...)
}

func toAnySlice(in []string) []interface{} {
	out := make([]interface{}, 0, len(in))
	for _, v := range in {
		out = append(out, v)
	}
	return out
}

func toStringSlice(key string, value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid value type for %s[%d]: expected string, got %T", key, i, item)
			}
			out = append(out, str)
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid value type for %s: expected list of strings, got %T", key, value)
	}
}
