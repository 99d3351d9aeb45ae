package workspace

import (
	"fmt"
	"path"

	"github.com/gobwas/glob"
)

// PatternMatcher applies glob allow/deny rules to slash-separated relative paths.
// Patterns use '/' as the separator, so "*" stays within one segment and "**"
// crosses segments.
type PatternMatcher struct {
	allowedPatterns []glob.Glob
	deniedPatterns  []glob.Glob
}

// NewPatternMatcher compiles the given patterns.
func NewPatternMatcher(allowed, denied []string) (*PatternMatcher, error) {
	pm := &PatternMatcher{}

	for _, pattern := range allowed {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid allowed pattern '%s': %w", pattern, err)
		}
		pm.allowedPatterns = append(pm.allowedPatterns, g)
	}

	for _, pattern := range denied {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid denied pattern '%s': %w", pattern, err)
		}
		pm.deniedPatterns = append(pm.deniedPatterns, g)
	}

	return pm, nil
}

// IsAllowed returns true if the path is allowed by the pattern rules.
// Denied patterns take precedence; with no allowed patterns everything not
// denied is allowed.
func (pm *PatternMatcher) IsAllowed(p string) bool {
	p = path.Clean(p)

	for _, pattern := range pm.deniedPatterns {
		if pattern.Match(p) {
			return false
		}
	}

	if len(pm.allowedPatterns) == 0 {
		return true
	}

	for _, pattern := range pm.allowedPatterns {
		if pattern.Match(p) {
			return true
		}
	}

	return false
}
