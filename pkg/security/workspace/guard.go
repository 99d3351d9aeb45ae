// Package workspace confines capture destinations to a root directory.
// It prevents path traversal out of the workspace, permits explicitly
// whitelisted directories, and applies glob allow/deny rules to the
// workspace-relative path of every destination.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Guard enforces workspace boundary restrictions on destination paths.
type Guard struct {
	workspaceDir    string          // Absolute, symlink-free path to workspace root
	patterns        *PatternMatcher // Allow/deny rules for workspace-relative paths
	whitelistedDirs []string        // Additional allowed directories outside workspace
}

// NewGuard creates a guard rooted at workspaceDir, which must exist.
// allowed and denied are glob patterns matched against workspace-relative
// paths; either may be empty.
func NewGuard(workspaceDir string, allowed, denied []string) (*Guard, error) {
	if workspaceDir == "" {
		return nil, fmt.Errorf("workspace directory cannot be empty")
	}

	absPath, err := filepath.Abs(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace directory: %w", err)
	}

	evalPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate workspace directory symlinks: %w", err)
	}

	patterns, err := NewPatternMatcher(allowed, denied)
	if err != nil {
		return nil, fmt.Errorf("failed to compile path patterns: %w", err)
	}

	return &Guard{
		workspaceDir:    evalPath,
		patterns:        patterns,
		whitelistedDirs: make([]string, 0),
	}, nil
}

// ValidatePath checks that path resolves inside the workspace (or a
// whitelisted directory) and, for workspace paths, that the pattern rules
// allow it. Patterns see the slash-separated path relative to the workspace
// root, so "**/*.html" does not match "page.html" at the root itself.
func (g *Guard) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	resolvedPath, err := g.ResolvePath(path)
	if err != nil {
		return err
	}

	if !g.IsWithinWorkspace(resolvedPath) {
		return fmt.Errorf("path '%s' is outside workspace boundaries", path)
	}

	if g.isUnder(resolvedPath, g.workspaceDir) {
		rel, relErr := filepath.Rel(g.workspaceDir, resolvedPath)
		if relErr == nil && rel != "." && !g.patterns.IsAllowed(filepath.ToSlash(rel)) {
			return fmt.Errorf("path '%s' is not allowed by workspace patterns", path)
		}
	}

	return nil
}

// ValidateDir checks that dir resolves inside the workspace or a
// whitelisted directory. Pattern rules describe destination files and are
// not applied to the directories that hold them.
func (g *Guard) ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("path cannot be empty")
	}

	resolved, err := g.ResolvePath(dir)
	if err != nil {
		return err
	}
	if !g.IsWithinWorkspace(resolved) {
		return fmt.Errorf("path '%s' is outside workspace boundaries", dir)
	}
	return nil
}

// ResolvePath converts path to an absolute, symlink-free path. Relative
// paths are joined to the workspace root and ~/ expands to the home directory.
// Missing trailing components are kept as-is so paths that do not exist
// yet can be resolved.
func (g *Guard) ResolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	expandedPath := path
	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand ~: %w", err)
		}
		expandedPath = filepath.Join(homeDir, strings.TrimPrefix(path[1:], "/"))
	}

	cleanPath := filepath.Clean(expandedPath)

	absPath := cleanPath
	if !filepath.IsAbs(cleanPath) {
		absPath = filepath.Join(g.workspaceDir, cleanPath)
	}

	return resolveExisting(filepath.Clean(absPath)), nil
}

// IsWithinWorkspace reports whether absPath is the workspace, a child of
// it, or inside a whitelisted directory.
func (g *Guard) IsWithinWorkspace(absPath string) bool {
	evalPath := resolveExisting(absPath)

	if g.isUnder(evalPath, g.workspaceDir) {
		return true
	}

	for _, whitelisted := range g.whitelistedDirs {
		if g.isUnder(evalPath, whitelisted) {
			return true
		}
	}

	return false
}

func (g *Guard) isUnder(path, root string) bool {
	return path == root || strings.HasPrefix(path+string(filepath.Separator), root+string(filepath.Separator))
}

// WorkspaceDir returns the absolute path of the workspace directory.
func (g *Guard) WorkspaceDir() string {
	return g.workspaceDir
}

// resolveExisting evaluates symlinks in the longest existing prefix of path
// and re-appends the components that do not exist yet. On macOS this keeps
// /var and /private/var comparable.
func resolveExisting(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}

	var components []string
	currentPath := path

	for {
		if resolved, err := filepath.EvalSymlinks(currentPath); err == nil {
			result := resolved
			for i := len(components) - 1; i >= 0; i-- {
				result = filepath.Join(result, components[i])
			}
			return result
		}

		dir := filepath.Dir(currentPath)
		if dir == currentPath || dir == "." {
			return filepath.Clean(path)
		}

		components = append(components, filepath.Base(currentPath))
		currentPath = dir
	}
}
