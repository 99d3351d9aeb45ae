package workspace

import (
	"fmt"
	"path/filepath"
)

// AddWhitelist allows captures into dir even though it lies outside the
// workspace. The directory does not need to exist yet.
func (g *Guard) AddWhitelist(dir string) error {
	if dir == "" {
		return fmt.Errorf("whitelist directory cannot be empty")
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve whitelist directory: %w", err)
	}

	evalPath := resolveExisting(absPath)

	for _, existing := range g.whitelistedDirs {
		if existing == evalPath {
			return nil
		}
	}

	g.whitelistedDirs = append(g.whitelistedDirs, evalPath)
	return nil
}

// GetWhitelist returns a copy of the whitelisted directories
func (g *Guard) GetWhitelist() []string {
	whitelist := make([]string, len(g.whitelistedDirs))
	copy(whitelist, g.whitelistedDirs)
	return whitelist
}
