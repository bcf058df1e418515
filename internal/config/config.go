package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

// Config holds all configurable parameters for the snap keyring.
type Config struct {
	// Keyring type reported to the host
	KeyringType string `yaml:"keyring_type"`

	// SQLite database holding the persisted keyring state
	StatePath string `yaml:"state_path"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Accept account additions and removals without prompting
	AutoApprove bool `yaml:"auto_approve"`

	// Origin announced to snaps on every invocation
	Origin string `yaml:"origin"`

	// Queued snap messages before senders block
	EventBuffer int `yaml:"event_buffer"`
}

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		KeyringType: models.KeyringType,
		StatePath:   "keyring.db",
		LogLevel:    "info",
		LogFormat:   "text",
		AutoApprove: false,
		Origin:      "metamask",
		EventBuffer: 64,
	}
}

// FromEnv returns a Config populated from environment variables,
// falling back to defaults for unset values.
func FromEnv() Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("KEYRING_TYPE"); v != "" {
		c.KeyringType = v
	}
	if v := os.Getenv("KEYRING_STATE_PATH"); v != "" {
		c.StatePath = v
	}
	if v := os.Getenv("KEYRING_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("KEYRING_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("KEYRING_AUTO_APPROVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AutoApprove = b
		}
	}
	if v := os.Getenv("KEYRING_ORIGIN"); v != "" {
		c.Origin = v
	}
	if v := os.Getenv("KEYRING_EVENT_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.EventBuffer = n
		}
	}
}

// Validate checks the values that have no sensible fallback.
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, must be text or json", c.LogFormat)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
