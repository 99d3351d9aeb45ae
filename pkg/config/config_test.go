package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func resetGlobal() {
	globalMu.Lock()
	globalManager = nil
	globalMu.Unlock()
}

func TestInitialize(t *testing.T) {
	t.Run("registers browser and capture sections", func(t *testing.T) {
		resetGlobal()
		t.Cleanup(resetGlobal)

		if err := Initialize(filepath.Join(t.TempDir(), "config.json")); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}

		if !IsInitialized() {
			t.Fatal("Global manager should be initialized")
		}

		sections := Global().GetSections()
		if len(sections) != 2 {
			t.Fatalf("Expected 2 sections, got %d", len(sections))
		}
		if sections[0].ID() != SectionIDBrowser || sections[1].ID() != SectionIDCapture {
			t.Errorf("Unexpected section order: %s, %s", sections[0].ID(), sections[1].ID())
		}

		if GetBrowser() == nil {
			t.Error("GetBrowser returned nil")
		}
		if GetCapture() == nil {
			t.Error("GetCapture returned nil")
		}
	})

	t.Run("loads existing configuration", func(t *testing.T) {
		resetGlobal()
		t.Cleanup(resetGlobal)

		configPath := filepath.Join(t.TempDir(), "config.json")
		if err := Initialize(configPath); err != nil {
			t.Fatalf("First initialize failed: %v", err)
		}

		if err := GetBrowser().SetData(map[string]interface{}{"engine": EngineRod, "timeout": "5s"}); err != nil {
			t.Fatalf("SetData failed: %v", err)
		}
		if err := GetCapture().SetData(map[string]interface{}{"default_mode": "append"}); err != nil {
			t.Fatalf("SetData failed: %v", err)
		}
		if err := Global().SaveAll(); err != nil {
			t.Fatalf("SaveAll failed: %v", err)
		}

		resetGlobal()
		if err := Initialize(configPath); err != nil {
			t.Fatalf("Second initialize failed: %v", err)
		}

		settings := GetBrowser().Settings()
		if settings.Engine != EngineRod {
			t.Errorf("Expected engine %q, got %q", EngineRod, settings.Engine)
		}
		if settings.Timeout != 5*time.Second {
			t.Errorf("Expected timeout 5s, got %s", settings.Timeout)
		}
		if GetCapture().GetDefaultMode() != "append" {
			t.Errorf("Expected default mode append, got %q", GetCapture().GetDefaultMode())
		}
	})

	t.Run("rejects malformed section data", func(t *testing.T) {
		resetGlobal()
		t.Cleanup(resetGlobal)

		configPath := filepath.Join(t.TempDir(), "config.json")
		content := `{"version":"1.0","sections":{"browser":{"headless":"yes"}}}`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		if err := Initialize(configPath); err == nil {
			t.Error("Expected error for non-boolean headless value")
		}
		if IsInitialized() {
			t.Error("Global manager should stay unset after a failed Initialize")
		}
	})
}

func TestGlobal_PanicsWhenUninitialized(t *testing.T) {
	resetGlobal()

	defer func() {
		if recover() == nil {
			t.Error("Expected Global to panic")
		}
	}()
	Global()
}

func TestGetters_Uninitialized(t *testing.T) {
	resetGlobal()

	if GetBrowser() != nil {
		t.Error("GetBrowser should return nil before Initialize")
	}
	if GetCapture() != nil {
		t.Error("GetCapture should return nil before Initialize")
	}
}

func TestWriteDefaults(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	configPath := filepath.Join(t.TempDir(), "config.json")
	content := `{"version":"1.0","sections":{"browser":{"engine":"rod","max_sessions":2},"capture":{"default_mode":"a"}}}`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if err := Initialize(configPath); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if GetBrowser().Settings().MaxSessions != 2 {
		t.Fatalf("Expected stored max_sessions 2, got %d", GetBrowser().Settings().MaxSessions)
	}

	written, err := WriteDefaults()
	if err != nil {
		t.Fatalf("WriteDefaults failed: %v", err)
	}
	if written != configPath {
		t.Errorf("Expected %s, got %s", configPath, written)
	}

	resetGlobal()
	if err := Initialize(configPath); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	settings := GetBrowser().Settings()
	if settings.Engine != EnginePlaywright || settings.MaxSessions != 5 {
		t.Errorf("Expected defaults after WriteDefaults, got %+v", settings)
	}
	if GetCapture().GetDefaultMode() != "overwrite" {
		t.Errorf("Expected default mode overwrite, got %q", GetCapture().GetDefaultMode())
	}
}
