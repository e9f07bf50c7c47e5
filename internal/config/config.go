package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for musidex clients. The daemon base URL is
// an explicit value handed to the API client constructor; nothing in the
// codebase reads it from process-wide mutable state.
type Config struct {
	// Daemon connection
	MusidexURL string `envconfig:"MUSIDEX_URL" default:"http://localhost:3200"`

	// Optional persistence collaborators
	MongodbURL string `envconfig:"MONGODB_URL"`
	ValkeyURL  string `envconfig:"VALKEY_URL"`

	// Default user whose library is selected when none is given
	DefaultUser int64 `envconfig:"MUSIDEX_USER"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.MusidexURL)
	if err != nil {
		return fmt.Errorf("invalid MUSIDEX_URL: %w", err)
	}
	if u.Host == "" || !strings.HasPrefix(u.Scheme, "http") {
		return fmt.Errorf("MUSIDEX_URL must be an http(s) URL, got %q", c.MusidexURL)
	}
	return nil
}

// HasMongo reports whether a persistent snapshot store is configured.
func (c *Config) HasMongo() bool { return c.MongodbURL != "" }

// HasValkey reports whether a snapshot cache is configured.
func (c *Config) HasValkey() bool { return c.ValkeyURL != "" }
