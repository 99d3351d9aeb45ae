package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// Initialize creates the global configuration manager, registers the
// browser and capture sections and loads them from configPath (or the
// default path when empty). Call once at startup.
func Initialize(configPath string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	store, err := NewFileStore(configPath)
	if err != nil {
		return err
	}

	manager := NewManager(store)

	if err := manager.RegisterSection(NewBrowserSection()); err != nil {
		return err
	}

	if err := manager.RegisterSection(NewCaptureSection()); err != nil {
		return err
	}

	if err := manager.LoadAll(); err != nil {
		return err
	}

	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}

	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetBrowser returns the browser section, or nil if config is not initialized.
func GetBrowser() *BrowserSection {
	if !IsInitialized() {
		return nil
	}

	section, ok := Global().GetSection(SectionIDBrowser)
	if !ok {
		return nil
	}

	browser, _ := section.(*BrowserSection)
	return browser
}

// GetCapture returns the capture section, or nil if config is not initialized.
func GetCapture() *CaptureSection {
	if !IsInitialized() {
		return nil
	}

	section, ok := Global().GetSection(SectionIDCapture)
	if !ok {
		return nil
	}

	capture, _ := section.(*CaptureSection)
	return capture
}

// WriteDefaults resets every section to its defaults and saves them,
// returning the path written.
func WriteDefaults() (string, error) {
	m := Global()
	m.ResetAll()
	if err := m.SaveAll(); err != nil {
		return "", err
	}
	return m.Store().Path(), nil
}
