package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGuard_AddWhitelist(t *testing.T) {
	guard, err := NewGuard(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("NewGuard() error = %v", err)
	}

	outsideDir := t.TempDir()
	if err := guard.AddWhitelist(outsideDir); err != nil {
		t.Fatalf("AddWhitelist() error = %v", err)
	}
	// Duplicate entries are ignored
	if err := guard.AddWhitelist(outsideDir); err != nil {
		t.Fatalf("AddWhitelist() duplicate error = %v", err)
	}

	if got := len(guard.GetWhitelist()); got != 1 {
		t.Errorf("GetWhitelist() length = %d, want 1", got)
	}

	if err := guard.AddWhitelist(""); err == nil {
		t.Error("AddWhitelist(\"\") expected error")
	}
}

func TestGuard_AddWhitelistNonExistent(t *testing.T) {
	guard, err := NewGuard(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("NewGuard() error = %v", err)
	}

	future := filepath.Join(t.TempDir(), "captures", "later")
	if err := guard.AddWhitelist(future); err != nil {
		t.Fatalf("AddWhitelist() error = %v", err)
	}

	if err := guard.ValidatePath(filepath.Join(future, "page.html")); err != nil {
		t.Errorf("ValidatePath() error = %v, want nil for whitelisted future directory", err)
	}
}

func TestGuard_GetWhitelistReturnsCopy(t *testing.T) {
	guard, err := NewGuard(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("NewGuard() error = %v", err)
	}
	if err := guard.AddWhitelist(t.TempDir()); err != nil {
		t.Fatalf("AddWhitelist() error = %v", err)
	}

	whitelist := guard.GetWhitelist()
	whitelist[0] = "/modified/path"

	if guard.GetWhitelist()[0] == "/modified/path" {
		t.Error("GetWhitelist() should return a copy, not the original slice")
	}
}

func TestGuard_ValidatePathWithWhitelist(t *testing.T) {
	guard, err := NewGuard(t.TempDir(), nil, []string{"**"})
	if err != nil {
		t.Fatalf("NewGuard() error = %v", err)
	}

	outsideDir := t.TempDir()
	outsideFile := filepath.Join(outsideDir, "page.html")
	if err := os.WriteFile(outsideFile, []byte("<html></html>"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if err := guard.ValidatePath(outsideFile); err == nil {
		t.Error("ValidatePath() expected error for path outside workspace")
	}

	if err := guard.AddWhitelist(outsideDir); err != nil {
		t.Fatalf("AddWhitelist() error = %v", err)
	}

	// Workspace patterns apply to workspace-relative paths only
	if err := guard.ValidatePath(outsideFile); err != nil {
		t.Errorf("ValidatePath() error = %v, want nil after whitelisting", err)
	}
}
