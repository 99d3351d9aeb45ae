package batch

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/pagecapture/pkg/capture"
)

// Config is a capture job, usually loaded from YAML.
//
//	workspace_dir: ./captures
//	timeout: 30s
//	continue_on_error: true
//	rate_limit: 0.5
//	engine: rod
//	constraints:
//	  denied_patterns: ["**/*.go"]
//	captures:
//	  - url: https://example.com
//	    file_path: example.html
//	  - url: https://example.org
//	    file_path: all.html
//	    mode: a
type Config struct {
	// WorkspaceDir confines every file_path; relative paths resolve against it
	WorkspaceDir string `yaml:"workspace_dir" json:"workspace_dir"`

	// Timeout bounds each capture; 0 means no per-capture limit
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// ContinueOnError keeps going after a failed capture
	ContinueOnError bool `yaml:"continue_on_error" json:"continue_on_error"`

	// RateLimit caps captures started per second; 0 means unlimited
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`

	// Engine overrides the configured browser engine: playwright or rod
	Engine string `yaml:"engine" json:"engine"`

	// Headless overrides the configured browser visibility
	Headless *bool `yaml:"headless" json:"headless"`

	Constraints ConstraintConfig `yaml:"constraints" json:"constraints"`
	Captures    []CaptureConfig  `yaml:"captures" json:"captures"`
	Artifacts   ArtifactConfig   `yaml:"artifacts" json:"artifacts"`
}

// ConstraintConfig restricts destination paths inside the workspace.
// Patterns match the file's path relative to the workspace root with '/'
// as the separator, so "**/*.html" does not match a root-level "page.html";
// list "*.html" as well for that. Parent directories are not matched.
type ConstraintConfig struct {
	AllowedPatterns []string `yaml:"allowed_patterns" json:"allowed_patterns"`
	DeniedPatterns  []string `yaml:"denied_patterns" json:"denied_patterns"`
}

// CaptureConfig is one page to save.
type CaptureConfig struct {
	URL      string `yaml:"url" json:"url"`
	FilePath string `yaml:"file_path" json:"file_path"`
	Mode     string `yaml:"mode" json:"mode"`
	Session  string `yaml:"session" json:"session"`
}

// ArtifactConfig controls the run report.
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// DefaultConfig returns a job with no captures.
func DefaultConfig() *Config {
	return &Config{
		WorkspaceDir: ".",
		Timeout:      2 * time.Minute,
		Artifacts: ArtifactConfig{
			OutputDir: ".pagecapture/artifacts",
		},
	}
}

// LoadConfig reads a YAML job file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse job file: %w", err)
	}
	return cfg, nil
}

// Validate checks the job and normalises capture modes.
func (c *Config) Validate() error {
	if c.WorkspaceDir == "" {
		return fmt.Errorf("workspace directory is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative")
	}
	switch c.Engine {
	case "", "playwright", "rod":
	default:
		return fmt.Errorf("invalid engine: %s (must be 'playwright' or 'rod')", c.Engine)
	}
	if len(c.Captures) == 0 {
		return fmt.Errorf("at least one capture is required")
	}

	for i := range c.Captures {
		cp := &c.Captures[i]
		if cp.URL == "" {
			return fmt.Errorf("captures[%d]: url is required", i)
		}
		if cp.FilePath == "" {
			return fmt.Errorf("captures[%d]: file_path is required", i)
		}
		mode, err := capture.ParseMode(cp.Mode)
		if err != nil {
			return fmt.Errorf("captures[%d]: %w", i, err)
		}
		cp.Mode = mode.String()
	}

	if c.Artifacts.Enabled && c.Artifacts.OutputDir == "" {
		return fmt.Errorf("artifacts.output_dir is required when artifacts are enabled")
	}
	return nil
}
