package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Gateway struct {
	BaseURL      string        `yaml:"baseUrl" envconfig:"FABLE_BASE_URL"`
	SessionToken string        `yaml:"sessionToken,omitempty" envconfig:"FABLE_SESSION_TOKEN"`
	SkipVerify   bool          `yaml:"skipVerify" envconfig:"FABLE_SKIP_VERIFY"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"FABLE_TIMEOUT"`
}

type Cache struct {
	FreshFor time.Duration `yaml:"freshFor" envconfig:"FABLE_CACHE_FRESH_FOR"`
}

type Retry struct {
	MaxAttempts int           `yaml:"maxAttempts" envconfig:"FABLE_RETRY_MAX_ATTEMPTS"`
	BaseDelay   time.Duration `yaml:"baseDelay" envconfig:"FABLE_RETRY_BASE_DELAY"`
	MaxDelay    time.Duration `yaml:"maxDelay" envconfig:"FABLE_RETRY_MAX_DELAY"`
}

type RateLimiter struct {
	Limit float64 `yaml:"limit" envconfig:"FABLE_RATE_LIMIT"` // Requests per second
	Burst int     `yaml:"burst" envconfig:"FABLE_RATE_BURST"` // Burst size
}

type Config struct {
	Gateway     Gateway     `yaml:"gateway"`
	Cache       Cache       `yaml:"cache"`
	Retry       Retry       `yaml:"retry"`
	RateLimiter RateLimiter `yaml:"rateLimiter"`
}

var (
	ErrConfigFileUnreadable     = errors.New("config file is unreadable")
	ErrConfigFileUnmarshallable = errors.New("config file is unmarshallable")
	ErrBaseURLMissing           = errors.New("gateway.baseUrl is missing in config")
	ErrCacheFreshForMissing     = errors.New("cache.freshFor is missing in config")
	ErrRetryAttemptsInvalid     = errors.New("retry.maxAttempts must be at least 1")
	ErrRateLimiterBurstInvalid  = errors.New("rateLimiter.burst must be at least 1 when a limit is set")
)

// LoadConfig reads the yaml file, applies FABLE_* environment overrides on
// top, then validates the result.
func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, ErrConfigFileUnreadable
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ErrConfigFileUnmarshallable
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv builds a config from environment variables alone, for deployments
// without a config file.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	sections := map[string]any{
		"gateway":     &cfg.Gateway,
		"cache":       &cfg.Cache,
		"retry":       &cfg.Retry,
		"rateLimiter": &cfg.RateLimiter,
	}
	for name, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return fmt.Errorf("environment overrides for %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Gateway.BaseURL == "" {
		return ErrBaseURLMissing
	}
	if c.Cache.FreshFor == 0 {
		return ErrCacheFreshForMissing
	}
	if c.Retry.MaxAttempts < 1 {
		return ErrRetryAttemptsInvalid
	}
	if c.RateLimiter.Limit > 0 && c.RateLimiter.Burst < 1 {
		return ErrRateLimiterBurstInvalid
	}
	return nil
}
