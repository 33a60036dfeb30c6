package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tenant declares one kitchen: its API slug, Mongo database, and the
// Telegram bot serving it.
type Tenant struct {
	Slug          string  `yaml:"slug"`
	Name          string  `yaml:"name"`
	Database      string  `yaml:"database"`
	BotToken      string  `yaml:"bot_token"`
	WebhookSecret string  `yaml:"webhook_secret"`
	ManagerIDs    []int64 `yaml:"manager_ids"`
}

// Config is the top-level application configuration.
type Config struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	PublicURL   string `yaml:"public_url"`
	MiniAppURL  string `yaml:"mini_app_url"`
	LogLevel    string `yaml:"log_level"`

	Mongo struct {
		URI string `yaml:"uri"`
	} `yaml:"mongo"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`

	Telegram struct {
		// RemoveWebhooksOnShutdown deregisters each tenant's webhook when
		// the process exits. Off by default so restarts don't drop updates.
		RemoveWebhooksOnShutdown bool `yaml:"remove_webhooks_on_shutdown"`
	} `yaml:"telegram"`

	Tenants []Tenant `yaml:"tenants"`
}

// Load reads the YAML config at path. Values of the form ${VAR} are
// expanded from the environment before parsing, so bot tokens and the JWT
// secret can stay out of the file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := defaults()
	expanded := os.Expand(string(raw), func(key string) string {
		return os.Getenv(key)
	})
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{
		Port:        8080,
		MetricsPort: 9090,
		LogLevel:    "info",
	}
	cfg.Mongo.URI = "mongodb://localhost:27017"
	return cfg
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(c.Tenants) == 0 {
		return fmt.Errorf("at least one tenant must be configured")
	}
	seen := make(map[string]bool, len(c.Tenants))
	for i, t := range c.Tenants {
		if t.Slug == "" {
			return fmt.Errorf("tenant %d: slug is required", i)
		}
		if seen[t.Slug] {
			return fmt.Errorf("duplicate tenant slug %q", t.Slug)
		}
		seen[t.Slug] = true
		if t.Database == "" {
			return fmt.Errorf("tenant %q: database is required", t.Slug)
		}
		if t.BotToken == "" {
			return fmt.Errorf("tenant %q: bot_token is required", t.Slug)
		}
		if t.WebhookSecret == "" {
			return fmt.Errorf("tenant %q: webhook_secret is required", t.Slug)
		}
	}
	return nil
}

// IsManager reports whether the Telegram user is configured as a manager
// for this tenant.
func (t *Tenant) IsManager(userID int64) bool {
	for _, id := range t.ManagerIDs {
		if id == userID {
			return true
		}
	}
	return false
}
