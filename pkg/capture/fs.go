package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PathGuard restricts and resolves destination paths.
// *workspace.Guard satisfies it.
type PathGuard interface {
	ValidatePath(path string) error
	ValidateDir(dir string) error
	ResolvePath(path string) (string, error)
}

// OSFilesystem writes to the local filesystem. When a guard is set, every
// path is validated and resolved through it first; otherwise relative paths
// resolve against the process working directory.
type OSFilesystem struct {
	guard    PathGuard
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// NewOSFilesystem creates a filesystem adapter. guard may be nil.
func NewOSFilesystem(guard PathGuard) *OSFilesystem {
	return &OSFilesystem{
		guard:    guard,
		dirPerm:  0755,
		filePerm: 0644,
	}
}

// EnsureDir creates dir and any missing ancestors. Only the workspace
// boundary is checked for dir; file patterns are enforced by WriteFile.
func (f *OSFilesystem) EnsureDir(ctx context.Context, dir string) error {
	absDir, err := f.resolveDir(dir)
	if err != nil {
		return err
	}

	info, err := os.Stat(absDir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", dir)
		}
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if err := os.MkdirAll(absDir, f.dirPerm); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	return nil
}

// WriteFile opens path in the requested mode and writes content once.
// The file handle is closed on every return path.
func (f *OSFilesystem) WriteFile(ctx context.Context, path string, content string, mode Mode) (info WriteInfo, err error) {
	absPath, err := f.resolve(path)
	if err != nil {
		return WriteInfo{}, err
	}

	created := true
	if st, statErr := os.Stat(absPath); statErr == nil {
		if st.IsDir() {
			return WriteInfo{}, fmt.Errorf("%s is a directory", path)
		}
		created = false
	}

	flags := os.O_CREATE | os.O_WRONLY
	switch mode {
	case ModeAppend:
		flags |= os.O_APPEND
	case ModeOverwrite, "":
		flags |= os.O_TRUNC
	default:
		return WriteInfo{}, fmt.Errorf("unsupported mode %q", mode)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return WriteInfo{}, ctxErr
	}

	file, err := os.OpenFile(absPath, flags, f.filePerm)
	if err != nil {
		return WriteInfo{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()

	n, err := file.WriteString(content)
	if err != nil {
		return WriteInfo{}, fmt.Errorf("failed to write file: %w", err)
	}

	return WriteInfo{
		AbsPath: absPath,
		Bytes:   n,
		Created: created,
	}, nil
}

func (f *OSFilesystem) resolve(path string) (string, error) {
	if f.guard == nil {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		return abs, nil
	}

	if err := f.guard.ValidatePath(path); err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	abs, err := f.guard.ResolvePath(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	return abs, nil
}

func (f *OSFilesystem) resolveDir(dir string) (string, error) {
	if f.guard == nil {
		return f.resolve(dir)
	}

	if err := f.guard.ValidateDir(dir); err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	abs, err := f.guard.ResolvePath(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	return abs, nil
}

// Resolve returns the absolute path WriteFile would write to, applying the
// guard if one is set.
func (f *OSFilesystem) Resolve(path string) (string, error) {
	return f.resolve(path)
}
