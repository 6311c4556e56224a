package config

import (
	"os"
	"testing"
	"time"

	"github.com/acolita/term-relay-mcp/internal/testing/fakes/fakefs"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Terminal.Endpoint != "ws://localhost:7681/ws" {
		t.Errorf("Terminal.Endpoint = %q", cfg.Terminal.Endpoint)
	}
	if cfg.Terminal.ConnectTimeout != 10*time.Second {
		t.Errorf("Terminal.ConnectTimeout = %s, want 10s", cfg.Terminal.ConnectTimeout)
	}
	if cfg.Terminal.DefaultWait != 5*time.Second {
		t.Errorf("Terminal.DefaultWait = %s, want 5s", cfg.Terminal.DefaultWait)
	}
	if cfg.Knowledge.BaseURL != "http://localhost:8765" {
		t.Errorf("Knowledge.BaseURL = %q", cfg.Knowledge.BaseURL)
	}
	if cfg.Uploader.BatchSize != 50 {
		t.Errorf("Uploader.BatchSize = %d, want 50", cfg.Uploader.BatchSize)
	}
	if !cfg.Logging.Sanitize {
		t.Error("Logging.Sanitize = false, want true")
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	fs := fakefs.New()
	fs.WriteFile("/etc/term-relay/config.yaml", []byte(`
terminal:
  endpoint: wss://term.internal/ws
  default_project: payments
  default_wait: 2s
knowledge:
  base_url: http://kb.internal:9000
logging:
  level: debug
`), 0644)

	cfg, err := Load("/etc/term-relay/config.yaml", fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Terminal.Endpoint != "wss://term.internal/ws" {
		t.Errorf("Terminal.Endpoint = %q", cfg.Terminal.Endpoint)
	}
	if cfg.Terminal.DefaultProject != "payments" {
		t.Errorf("Terminal.DefaultProject = %q", cfg.Terminal.DefaultProject)
	}
	if cfg.Terminal.DefaultWait != 2*time.Second {
		t.Errorf("Terminal.DefaultWait = %s, want 2s", cfg.Terminal.DefaultWait)
	}
	if cfg.Knowledge.BaseURL != "http://kb.internal:9000" {
		t.Errorf("Knowledge.BaseURL = %q", cfg.Knowledge.BaseURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}

	// Unset keys keep their defaults.
	if cfg.Terminal.ConnectTimeout != 10*time.Second {
		t.Errorf("Terminal.ConnectTimeout = %s, want default 10s", cfg.Terminal.ConnectTimeout)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	fs := fakefs.New()
	cfg, err := Load("/nowhere/config.yaml", fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Terminal.Endpoint == "" {
		t.Error("expected default endpoint for missing file")
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	fs := fakefs.New()
	fs.WriteFile("/etc/term-relay/config.yaml", []byte(`
terminal:
  endpoint: wss://from-yaml/ws
`), 0644)

	os.Setenv("TERM_RELAY_TERMINAL_ENDPOINT", "wss://from-env/ws")
	os.Setenv("TERM_RELAY_DEFAULT_PROJECT", "env-project")
	defer os.Unsetenv("TERM_RELAY_TERMINAL_ENDPOINT")
	defer os.Unsetenv("TERM_RELAY_DEFAULT_PROJECT")

	cfg, err := Load("/etc/term-relay/config.yaml", fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Terminal.Endpoint != "wss://from-env/ws" {
		t.Errorf("Terminal.Endpoint = %q, want env value", cfg.Terminal.Endpoint)
	}
	if cfg.Terminal.DefaultProject != "env-project" {
		t.Errorf("Terminal.DefaultProject = %q, want env value", cfg.Terminal.DefaultProject)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil for empty endpoint, want error")
	}

	cfg = DefaultConfig()
	cfg.Terminal.ConnectTimeout = 0
	cfg.Uploader.BatchSize = -1
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Terminal.ConnectTimeout != 10*time.Second {
		t.Errorf("ConnectTimeout not backfilled: %s", cfg.Terminal.ConnectTimeout)
	}
	if cfg.Uploader.BatchSize != 50 {
		t.Errorf("BatchSize not backfilled: %d", cfg.Uploader.BatchSize)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	fs := fakefs.New()

	cfg := DefaultConfig()
	cfg.Terminal.DefaultProject = "roundtrip"
	if err := Save(cfg, "/home/test/.config/term-relay-mcp/config.yaml", fs); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load("/home/test/.config/term-relay-mcp/config.yaml", fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Terminal.DefaultProject != "roundtrip" {
		t.Errorf("DefaultProject = %q, want %q", loaded.Terminal.DefaultProject, "roundtrip")
	}
}
