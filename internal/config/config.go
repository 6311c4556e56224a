// Package config handles configuration for term-relay-mcp.
//
// Precedence is defaults < YAML file < environment. Environment variables
// use the TERM_RELAY prefix, e.g. TERM_RELAY_TERMINAL_ENDPOINT.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/acolita/term-relay-mcp/internal/ports"
)


// DefaultConfigPath returns the default config file path:
// $XDG_CONFIG_HOME/term-relay-mcp/config.yaml or ~/.config/term-relay-mcp/config.yaml
func DefaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "term-relay-mcp", "config.yaml")
}

// Config is the top-level configuration shared by the bridge and the
// transcript uploader.
type Config struct {
	Terminal  TerminalConfig  `yaml:"terminal"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Relay     RelayConfig     `yaml:"relay"`
	Uploader  UploaderConfig  `yaml:"uploader"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TerminalConfig configures the remote terminal bridge.
type TerminalConfig struct {
	Endpoint       string        `yaml:"endpoint" envconfig:"TERM_RELAY_TERMINAL_ENDPOINT"`
	DefaultProject string        `yaml:"default_project" envconfig:"TERM_RELAY_DEFAULT_PROJECT"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"TERM_RELAY_CONNECT_TIMEOUT"`
	DefaultWait    time.Duration `yaml:"default_wait" envconfig:"TERM_RELAY_DEFAULT_WAIT"`
}

// KnowledgeConfig configures the knowledge-store HTTP API client.
type KnowledgeConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"TERM_RELAY_KNOWLEDGE_URL"`
}

// RelayConfig configures the logging relay socket. An empty endpoint
// disables the relay.
type RelayConfig struct {
	Endpoint string `yaml:"endpoint" envconfig:"TERM_RELAY_RELAY_ENDPOINT"`
}

// UploaderConfig configures the transcript uploader companion.
type UploaderConfig struct {
	// Glob selects the transcript file to follow; the newest match wins.
	Glob      string        `yaml:"glob" envconfig:"TERM_RELAY_UPLOADER_GLOB"`
	Interval  time.Duration `yaml:"interval" envconfig:"TERM_RELAY_UPLOADER_INTERVAL"`
	BatchSize int           `yaml:"batch_size" envconfig:"TERM_RELAY_UPLOADER_BATCH_SIZE"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"TERM_RELAY_LOG_LEVEL"`       // "debug", "info", "warn", "error"
	Sanitize bool   `yaml:"sanitize" envconfig:"TERM_RELAY_LOG_SANITIZE"` // redact sensitive attributes
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Terminal: TerminalConfig{
			Endpoint:       "ws://localhost:7681/ws",
			ConnectTimeout: 10 * time.Second,
			DefaultWait:    5 * time.Second,
		},
		Knowledge: KnowledgeConfig{
			BaseURL: "http://localhost:8765",
		},
		Uploader: UploaderConfig{
			Glob:      "~/.term-relay/transcripts/*.jsonl",
			Interval:  30 * time.Second,
			BatchSize: 50,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Sanitize: true,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (a
// missing file is fine), then environment overrides. An optional FileSystem
// can be passed for testing; if omitted, the real OS is used.
func Load(path string, fsys ...ports.FileSystem) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		var data []byte
		var err error
		if len(fsys) > 0 && fsys[0] != nil {
			data, err = fsys[0].ReadFile(path)
		} else {
			data, err = os.ReadFile(path)
		}
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		case os.IsNotExist(err):
			// No file yet; defaults plus env still apply.
		default:
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	return cfg, nil
}

// Validate fills gaps that would otherwise break the bridge at runtime.
func (c *Config) Validate() error {
	if c.Terminal.Endpoint == "" {
		return fmt.Errorf("terminal.endpoint is required")
	}
	if c.Terminal.ConnectTimeout <= 0 {
		c.Terminal.ConnectTimeout = 10 * time.Second
	}
	if c.Terminal.DefaultWait <= 0 {
		c.Terminal.DefaultWait = 5 * time.Second
	}
	if c.Uploader.BatchSize <= 0 {
		c.Uploader.BatchSize = 50
	}
	if c.Uploader.Interval <= 0 {
		c.Uploader.Interval = 30 * time.Second
	}
	return nil
}

// Save writes the configuration to a YAML file. An optional FileSystem can
// be passed for testing; if omitted, the real OS is used.
func Save(cfg *Config, path string, fsys ...ports.FileSystem) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if len(fsys) > 0 && fsys[0] != nil {
		if err := fsys[0].MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		return fsys[0].WriteFile(path, data, 0644)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
