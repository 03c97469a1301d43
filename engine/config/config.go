// Package config loads the runtime configuration of the pipes engine: worker pool size, logging,
// retry policy, HTTP client settings and the model endpoint.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/spf13/viper"

	"github.com/smartcontractkit/pipes-framework/operations"
)

// RetryConfig controls retries of transient computation failures.
type RetryConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled" toml:"enabled"`
	MaxAttempts uint          `mapstructure:"max_attempts" yaml:"max_attempts" toml:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay" yaml:"delay" toml:"delay"`
}

// Policy returns the retry policy, or nil when retries are disabled.
func (c RetryConfig) Policy() *operations.RetryPolicy {
	if !c.Enabled {
		return nil
	}

	return &operations.RetryPolicy{MaxAttempts: c.MaxAttempts, Delay: c.Delay}
}

// HTTPConfig configures the HTTP client used by the built-in network functions.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout" toml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent" toml:"user_agent"`
}

// ModelConfig configures the completion endpoint used by model-backed pipes.
type ModelConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" toml:"endpoint"` // Empty disables model-backed pipes
}

// Config wraps the entire configuration of the pipes engine.
type Config struct {
	Workers  int         `mapstructure:"workers" yaml:"workers" toml:"workers"`       // Size of the blocking worker pool
	LogLevel string      `mapstructure:"log_level" yaml:"log_level" toml:"log_level"` // debug, info, warn or error
	Retry    RetryConfig `mapstructure:"retry" yaml:"retry" toml:"retry"`
	HTTP     HTTPConfig  `mapstructure:"http" yaml:"http" toml:"http"`
	Model    ModelConfig `mapstructure:"model" yaml:"model" toml:"model"`
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.Retry.Enabled && c.Retry.MaxAttempts == 0 {
		errs = append(errs, errors.New("retry.max_attempts must be positive when retries are enabled"))
	}
	if c.HTTP.Timeout < 0 {
		errs = append(errs, fmt.Errorf("http.timeout must not be negative, got %s", c.HTTP.Timeout))
	}

	return errors.Join(errs...)
}

// Load loads the config from the file path, falling back to env vars if the file does not exist.
// If the file exists, any env vars that are set will override the values loaded from the file.
// An empty path only reads env vars.
func Load(filePath string) (*Config, error) {
	v := newViper()

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if filePath != "" {
		v.SetConfigFile(filePath)
		if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", filePath, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// LoadEnv loads the config from the environment variables.
func LoadEnv() (*Config, error) {
	return Load("")
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	// The defaults always decode.
	_ = newViper().Unmarshal(cfg)

	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("workers", operations.DefaultWorkers)
	v.SetDefault("log_level", "info")
	v.SetDefault("retry.enabled", false)
	v.SetDefault("retry.max_attempts", operations.DefaultRetryPolicy().MaxAttempts)
	v.SetDefault("retry.delay", operations.DefaultRetryPolicy().Delay)
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.user_agent", "pipes")

	return v
}

var (
	// envBindings defines how environment variables map to configuration keys used by Viper.
	// The first listed variable wins when several are set.
	envBindings = map[string][]string{
		"workers":            {"PIPES_WORKERS"},
		"log_level":          {"PIPES_LOG_LEVEL", "LOG_LEVEL"},
		"retry.enabled":      {"PIPES_RETRY_ENABLED"},
		"retry.max_attempts": {"PIPES_RETRY_MAX_ATTEMPTS"},
		"retry.delay":        {"PIPES_RETRY_DELAY"},
		"http.timeout":       {"PIPES_HTTP_TIMEOUT"},
		"http.user_agent":    {"PIPES_HTTP_USER_AGENT"},
		"model.endpoint":     {"PIPES_MODEL_ENDPOINT"},
	}
)

// bindEnvs binds the environment variables to the viper instance.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		inputs := slices.Insert(slices.Clone(envs), 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}
