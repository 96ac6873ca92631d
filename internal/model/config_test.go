package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Listing.DebounceMS != 300 {
		t.Errorf("Expected debounce 300, got %d", cfg.Listing.DebounceMS)
	}
	if cfg.Backend.BaseURL == "" {
		t.Error("Expected a default base URL")
	}
	if cfg.Mail.From == "" {
		t.Error("Expected a default sender address")
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`backend:
  base_url: http://10.0.0.5:3010
  timeout_sec: 15
mail:
  from: desk@example.com
listing:
  debounce_ms: 50
archive:
  enabled: true
  host: imap.example.com
  username: desk
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Backend.BaseURL != "http://10.0.0.5:3010" {
		t.Errorf("Unexpected base URL %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSec != 15 {
		t.Errorf("Expected timeout 15, got %d", cfg.Backend.TimeoutSec)
	}
	if cfg.Mail.From != "desk@example.com" {
		t.Errorf("Unexpected sender %q", cfg.Mail.From)
	}
	if cfg.Listing.DebounceMS != 50 {
		t.Errorf("Expected debounce 50, got %d", cfg.Listing.DebounceMS)
	}
	if !cfg.Archive.Enabled || cfg.Archive.Host != "imap.example.com" {
		t.Errorf("Unexpected archive settings %+v", cfg.Archive)
	}
	if cfg.Archive.Port != 993 || cfg.Archive.Folder != "Sent" || !cfg.Archive.UseTLS {
		t.Errorf("Expected archive defaults for unset keys, got %+v", cfg.Archive)
	}
	// Unset keys keep their defaults.
	if cfg.Display.Theme != "default" {
		t.Errorf("Expected default theme, got %q", cfg.Display.Theme)
	}
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	t.Setenv("EPAPER_BACKEND_BASE_URL", "http://env-host:9000")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Backend.BaseURL != "http://env-host:9000" {
		t.Errorf("Expected env override, got %q", cfg.Backend.BaseURL)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := defaultAppConfig()
	cfg.Backend.BaseURL = "http://saved:1234"
	cfg.Mail.From = "saved@example.com"

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Backend.BaseURL != "http://saved:1234" {
		t.Errorf("Unexpected base URL %q", loaded.Backend.BaseURL)
	}
	if loaded.Mail.From != "saved@example.com" {
		t.Errorf("Unexpected sender %q", loaded.Mail.From)
	}
}
