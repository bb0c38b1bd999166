// Package config provides configuration loading and validation for the server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SourceConfig describes one external job-board search surface.
type SourceConfig struct {
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base_url"`
}

// Config holds the full runtime configuration. Values come from an optional
// YAML file merged with TALENT_-prefixed environment variables; DATABASE_URL
// and GEMINI_API_KEY are also honored without the prefix.
type Config struct {
	Port          int    `mapstructure:"port"`
	DatabaseURL   string `mapstructure:"database_url"`
	PublicBaseURL string `mapstructure:"public_base_url"`

	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`

	TrackingTTLDays int `mapstructure:"tracking_ttl_days"`

	SchedulerPoll     time.Duration `mapstructure:"scheduler_poll"`
	OutboxPoll        time.Duration `mapstructure:"outbox_poll"`
	OutboxMaxAttempts int           `mapstructure:"outbox_max_attempts"`

	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second"`
	RateLimitBurst     int     `mapstructure:"rate_limit_burst"`

	Sources []SourceConfig `mapstructure:"sources"`

	LogJSON  bool `mapstructure:"log_json"`
	LogDebug bool `mapstructure:"log_debug"`
}

// Load reads configuration from the given file path (optional) and the
// environment, applying defaults for everything not set.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("port", 8080)
	v.SetDefault("public_base_url", "http://localhost:8080")
	v.SetDefault("gemini_model", "gemini-2.0-flash")
	v.SetDefault("tracking_ttl_days", 90)
	v.SetDefault("scheduler_poll", time.Minute)
	v.SetDefault("outbox_poll", 15*time.Second)
	v.SetDefault("outbox_max_attempts", 8)
	v.SetDefault("rate_limit_per_second", 2.0)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("log_json", false)
	v.SetDefault("log_debug", false)

	v.SetEnvPrefix("TALENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Common unprefixed variables used in deployment environments.
	_ = v.BindEnv("database_url", "TALENT_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("gemini_api_key", "TALENT_GEMINI_API_KEY", "GEMINI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: invalid port %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: database_url is required")
	}
	if c.TrackingTTLDays <= 0 {
		return fmt.Errorf("config error: tracking_ttl_days must be positive")
	}
	if c.SchedulerPoll <= 0 {
		return fmt.Errorf("config error: scheduler_poll must be positive")
	}
	if c.OutboxPoll <= 0 {
		return fmt.Errorf("config error: outbox_poll must be positive")
	}
	for _, src := range c.Sources {
		if src.Name == "" || src.BaseURL == "" {
			return fmt.Errorf("config error: every source needs a name and base_url")
		}
	}
	return nil
}

// TrackingTTL returns the tracking link lifetime as a duration.
func (c *Config) TrackingTTL() time.Duration {
	return time.Duration(c.TrackingTTLDays) * 24 * time.Hour
}
