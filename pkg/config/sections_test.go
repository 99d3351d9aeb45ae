package config

import (
	"testing"
	"time"
)

func TestBrowserSection_Defaults(t *testing.T) {
	s := NewBrowserSection()

	settings := s.Settings()
	if settings.Engine != EnginePlaywright {
		t.Errorf("Expected default engine %q, got %q", EnginePlaywright, settings.Engine)
	}
	if !settings.Headless {
		t.Error("Expected headless by default")
	}
	if settings.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %s", settings.Timeout)
	}
	if settings.WaitUntil != "load" {
		t.Errorf("Expected wait_until load, got %q", settings.WaitUntil)
	}
	if settings.IdleTimeout != 5*time.Minute || settings.MaxSessions != 5 {
		t.Errorf("Unexpected session limits: idle=%s max=%d", settings.IdleTimeout, settings.MaxSessions)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestBrowserSection_SetData(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]interface{}
		wantErr bool
		check   func(t *testing.T, s BrowserSettings)
	}{
		{
			name: "duration string",
			data: map[string]interface{}{"timeout": "1m30s"},
			check: func(t *testing.T, s BrowserSettings) {
				if s.Timeout != 90*time.Second {
					t.Errorf("Expected 90s, got %s", s.Timeout)
				}
			},
		},
		{
			name: "duration as JSON number",
			data: map[string]interface{}{"timeout": float64(2 * time.Second)},
			check: func(t *testing.T, s BrowserSettings) {
				if s.Timeout != 2*time.Second {
					t.Errorf("Expected 2s, got %s", s.Timeout)
				}
			},
		},
		{
			name: "booleans and strings",
			data: map[string]interface{}{"headless": false, "stealth": true, "engine": "rod", "browser_bin": "/usr/bin/chromium"},
			check: func(t *testing.T, s BrowserSettings) {
				if s.Headless || !s.Stealth || s.Engine != "rod" || s.BrowserBin != "/usr/bin/chromium" {
					t.Errorf("Unexpected settings: %+v", s)
				}
			},
		},
		{
			name: "session limits",
			data: map[string]interface{}{"idle_timeout": "90s", "max_sessions": float64(2)},
			check: func(t *testing.T, s BrowserSettings) {
				if s.IdleTimeout != 90*time.Second || s.MaxSessions != 2 {
					t.Errorf("Unexpected session limits: %+v", s)
				}
			},
		},
		{
			name: "unknown keys ignored",
			data: map[string]interface{}{"future_option": 42.0},
		},
		{name: "bad bool", data: map[string]interface{}{"headless": "true"}, wantErr: true},
		{name: "bad duration", data: map[string]interface{}{"timeout": "soon"}, wantErr: true},
		{name: "bad string", data: map[string]interface{}{"engine": 3.0}, wantErr: true},
		{name: "fractional max_sessions", data: map[string]interface{}{"max_sessions": 1.5}, wantErr: true},
		{name: "string max_sessions", data: map[string]interface{}{"max_sessions": "3"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewBrowserSection()
			err := s.SetData(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetData() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, s.Settings())
			}
		})
	}
}

func TestBrowserSection_Validate(t *testing.T) {
	tests := []struct {
		name string
		data map[string]interface{}
	}{
		{"unknown engine", map[string]interface{}{"engine": "selenium"}},
		{"zero timeout", map[string]interface{}{"timeout": "0s"}},
		{"bad wait state", map[string]interface{}{"wait_until": "whenever"}},
		{"zero idle timeout", map[string]interface{}{"idle_timeout": "0s"}},
		{"no sessions", map[string]interface{}{"max_sessions": float64(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewBrowserSection()
			if err := s.SetData(tt.data); err != nil {
				t.Fatalf("SetData failed: %v", err)
			}
			if err := s.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestBrowserSection_DataRoundTrip(t *testing.T) {
	s := NewBrowserSection()
	_ = s.SetData(map[string]interface{}{"timeout": "45s", "engine": "rod", "max_sessions": float64(3)})

	other := NewBrowserSection()
	if err := other.SetData(s.Data()); err != nil {
		t.Fatalf("SetData(Data()) failed: %v", err)
	}
	if other.Settings() != s.Settings() {
		t.Errorf("Round trip mismatch: %+v vs %+v", other.Settings(), s.Settings())
	}
}

func TestCaptureSection(t *testing.T) {
	s := NewCaptureSection()
	if s.GetDefaultMode() != "overwrite" {
		t.Errorf("Expected default mode overwrite, got %q", s.GetDefaultMode())
	}

	err := s.SetData(map[string]interface{}{
		"default_mode":     "a",
		"workspace_dir":    "/srv/captures",
		"whitelisted_dirs": []interface{}{"/tmp/shared"},
		"denied_patterns":  []interface{}{"**/*.go"},
		"allowed_patterns": []string{"**/*.html"},
	})
	if err != nil {
		t.Fatalf("SetData failed: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}

	if s.GetWorkspaceDir() != "/srv/captures" {
		t.Errorf("Unexpected workspace dir %q", s.GetWorkspaceDir())
	}
	dirs := s.GetWhitelistedDirs()
	if len(dirs) != 1 || dirs[0] != "/tmp/shared" {
		t.Errorf("Unexpected whitelist %v", dirs)
	}
	allowed, denied := s.GetPatterns()
	if len(allowed) != 1 || len(denied) != 1 {
		t.Errorf("Unexpected patterns %v / %v", allowed, denied)
	}

	dirs[0] = "mutated"
	if s.GetWhitelistedDirs()[0] != "/tmp/shared" {
		t.Error("GetWhitelistedDirs should return a copy")
	}

	if err := s.SetData(map[string]interface{}{"whitelisted_dirs": []interface{}{1.0}}); err == nil {
		t.Error("Expected error for non-string list entry")
	}

	_ = s.SetData(map[string]interface{}{"default_mode": "x"})
	if err := s.Validate(); err == nil {
		t.Error("Expected validation error for unknown mode")
	}

	s.Reset()
	if s.GetWorkspaceDir() != "" || len(s.GetWhitelistedDirs()) != 0 {
		t.Error("Reset should clear directories")
	}
}
