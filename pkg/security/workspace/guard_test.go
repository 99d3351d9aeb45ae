package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewGuard(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name         string
		workspaceDir string
		denied       []string
		wantErr      bool
	}{
		{
			name:         "valid existing directory",
			workspaceDir: tmpDir,
		},
		{
			name:         "current directory",
			workspaceDir: ".",
		},
		{
			name:         "empty directory",
			workspaceDir: "",
			wantErr:      true,
		},
		{
			name:         "non-existent directory",
			workspaceDir: filepath.Join(tmpDir, "does-not-exist"),
			wantErr:      true,
		},
		{
			name:         "invalid pattern",
			workspaceDir: tmpDir,
			denied:       []string{"[bad"},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard, err := NewGuard(tt.workspaceDir, nil, tt.denied)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGuard() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && guard.WorkspaceDir() == "" {
				t.Error("NewGuard() created guard with empty workspace directory")
			}
		})
	}
}

func TestGuard_ValidatePath(t *testing.T) {
	tmpDir := t.TempDir()

	guard, err := NewGuard(tmpDir, nil, []string{"secrets/**"})
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}

	if err := os.Mkdir(filepath.Join(tmpDir, "subdir"), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "file in workspace", path: "page.html"},
		{name: "file in existing subdirectory", path: "subdir/page.html"},
		{name: "file in missing subdirectory", path: "out/deep/page.html"},
		{name: "workspace root", path: "."},
		{name: "empty path", path: "", wantErr: true},
		{name: "parent directory traversal", path: "../outside.html", wantErr: true},
		{name: "hidden traversal", path: "subdir/../../outside.html", wantErr: true},
		{name: "absolute path outside workspace", path: "/etc/passwd", wantErr: true},
		{name: "denied pattern", path: "secrets/page.html", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.ValidatePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestGuard_ResolvePath(t *testing.T) {
	guard, err := NewGuard(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}
	workspaceDir := guard.WorkspaceDir()

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "relative path", path: "page.html", want: filepath.Join(workspaceDir, "page.html")},
		{name: "path with dots", path: "./subdir/../page.html", want: filepath.Join(workspaceDir, "page.html")},
		{name: "missing directories kept", path: "a/b/page.html", want: filepath.Join(workspaceDir, "a", "b", "page.html")},
		{name: "empty path", path: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := guard.ResolvePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolvePath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && resolved != tt.want {
				t.Errorf("ResolvePath(%q) = %q, want %q", tt.path, resolved, tt.want)
			}
		})
	}
}

func TestGuard_ResolvePathTilde(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	guard, err := NewGuard(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}

	for _, path := range []string{"~", "~/"} {
		resolved, err := guard.ResolvePath(path)
		if err != nil {
			t.Fatalf("ResolvePath(%q) error = %v", path, err)
		}
		if resolved != resolveExisting(homeDir) {
			t.Errorf("ResolvePath(%q) = %q, want home directory", path, resolved)
		}
	}
}

func TestGuard_IsWithinWorkspace(t *testing.T) {
	guard, err := NewGuard(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}
	workspaceDir := guard.WorkspaceDir()

	tests := []struct {
		name    string
		absPath string
		want    bool
	}{
		{name: "workspace root", absPath: workspaceDir, want: true},
		{name: "file in workspace", absPath: filepath.Join(workspaceDir, "page.html"), want: true},
		{name: "nested missing path", absPath: filepath.Join(workspaceDir, "a", "b", "page.html"), want: true},
		{name: "parent directory", absPath: filepath.Dir(workspaceDir), want: false},
		{name: "sibling with shared prefix", absPath: workspaceDir + "-other", want: false},
		{name: "root directory", absPath: "/", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := guard.IsWithinWorkspace(tt.absPath); got != tt.want {
				t.Errorf("IsWithinWorkspace(%q) = %v, want %v", tt.absPath, got, tt.want)
			}
		})
	}
}

func TestGuard_ValidateDir(t *testing.T) {
	tmpDir := t.TempDir()
	outsideDir := t.TempDir()

	guard, err := NewGuard(tmpDir, []string{"**/*.html"}, []string{"secrets/**"})
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}
	if err := guard.AddWhitelist(outsideDir); err != nil {
		t.Fatalf("AddWhitelist() error = %v", err)
	}

	tests := []struct {
		name    string
		dir     string
		wantErr bool
	}{
		{name: "missing subdirectory", dir: "out"},
		{name: "nested missing subdirectory", dir: "out/a/b"},
		{name: "workspace root", dir: "."},
		{name: "whitelisted directory", dir: filepath.Join(outsideDir, "pages")},
		{name: "empty", dir: "", wantErr: true},
		{name: "traversal", dir: "../elsewhere", wantErr: true},
		{name: "absolute outside", dir: "/etc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.ValidateDir(tt.dir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDir(%q) error = %v, wantErr %v", tt.dir, err, tt.wantErr)
			}
		})
	}

	if err := guard.ValidatePath("out"); err == nil {
		t.Error("ValidatePath(\"out\") should still apply file patterns")
	}
}

func TestGuard_SymlinkEscape(t *testing.T) {
	tmpDir := t.TempDir()
	outsideDir := t.TempDir()

	link := filepath.Join(tmpDir, "escape")
	if err := os.Symlink(outsideDir, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	guard, err := NewGuard(tmpDir, nil, nil)
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}

	if err := guard.ValidatePath("escape/page.html"); err == nil {
		t.Error("ValidatePath() expected error for path escaping through symlink")
	}
}
