package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/internhub/internhub/pkg/models"
	"gopkg.in/yaml.v3"
)

// Config holds all internhub configuration. Values come from defaults, then
// the YAML file, then INTERNHUB_* environment variables.
type Config struct {
	Listen       string                `yaml:"listen" env:"INTERNHUB_LISTEN"`
	DBPath       string                `yaml:"db_path" env:"INTERNHUB_DB_PATH"`
	LogLevel     string                `yaml:"log_level" env:"INTERNHUB_LOG_LEVEL"`
	FetchTimeout time.Duration         `yaml:"fetch_timeout" env:"INTERNHUB_FETCH_TIMEOUT"`
	Cache        CacheConfig           `yaml:"cache" envPrefix:"INTERNHUB_CACHE_"`
	Activity     models.ActivityConfig `yaml:"activity" envPrefix:"INTERNHUB_ACTIVITY_"`
}

// CacheConfig controls the query cache.
type CacheConfig struct {
	TTL          time.Duration `yaml:"ttl" env:"TTL"`
	SingleFlight bool          `yaml:"single_flight" env:"SINGLE_FLIGHT"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen:       ":8080",
		DBPath:       "internhub.db",
		LogLevel:     "info",
		FetchTimeout: 10 * time.Second,
		Cache: CacheConfig{
			TTL: time.Minute,
		},
		Activity: models.ActivityConfig{
			Enabled:       true,
			RetentionDays: 90,
		},
	}
}

// ActivityDBPath returns the activity database path, falling back to the
// main database when none is configured.
func (c *Config) ActivityDBPath() string {
	if c.Activity.DBPath != "" {
		return c.Activity.DBPath
	}
	return c.DBPath
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return applyEnv(cfg)
}

// LoadOrDefault loads path if it exists and falls back to defaults
// otherwise. Environment overrides apply in both cases.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return applyEnv(Default())
	}
	return Load(path)
}

func applyEnv(cfg *Config) (*Config, error) {
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
