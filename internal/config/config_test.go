package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("Wrong default listen: %s", cfg.Listen)
	}
	if cfg.WindowBackMonths != 2 || cfg.WindowForwardMonths != 12 {
		t.Errorf("Wrong default window: -%d/+%d months", cfg.WindowBackMonths, cfg.WindowForwardMonths)
	}
	if cfg.RefreshCron != "*/5 * * * *" {
		t.Errorf("Wrong default refresh: %s", cfg.RefreshCron)
	}
	if cfg.BasicAuth != nil {
		t.Error("Basic auth should be disabled by default")
	}
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EventsFile != "./events.yaml" {
		t.Errorf("Wrong events file: %s", cfg.EventsFile)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Expected 0600 permissions, got %o", perm)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `listen: ":9090"
window_forward_months: 0
log_level: verbose
ics_files:
  - team.ics
basic_auth:
  username: admin
  password: secret
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		ok   bool
	}{
		{"listen from file", cfg.Listen == ":9090"},
		{"back months kept default", cfg.WindowBackMonths == 2},
		{"zero forward months normalized", cfg.WindowForwardMonths == 12},
		{"unknown log level normalized", cfg.LogLevel == "info"},
		{"ics files read", len(cfg.ICSFiles) == 1 && cfg.ICSFiles[0] == "team.ics"},
		{"cache dir defaulted", cfg.CacheDir == "./cache/ics"},
		{"basic auth read", cfg.BasicAuth != nil && cfg.BasicAuth.Username == "admin"},
	}
	for _, tt := range tests {
		if !tt.ok {
			t.Errorf("%s: got %+v", tt.name, cfg)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.ICSFiles = []string{"a.ics", "b.ics"}
	cfg.LogLevel = "debug"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.ICSFiles) != 2 || loaded.LogLevel != "debug" {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Error("expected error for empty path")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("listen: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}

	if err := Save(path, nil); err == nil {
		t.Error("expected error for nil config")
	}
}
