package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/smartcontractkit/pipes-framework/operations"
)

var (
	// fileCfg is the expected config loaded from testdata/config.yml.
	fileCfg = &Config{
		Workers:  8,
		LogLevel: "debug",
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 5,
			Delay:       250 * time.Millisecond,
		},
		HTTP: HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "pipes-test",
		},
		Model: ModelConfig{
			Endpoint: "http://localhost:8089/generate",
		},
	}

	envVars = map[string]string{
		"PIPES_WORKERS":            "3",
		"PIPES_LOG_LEVEL":          "error",
		"PIPES_RETRY_ENABLED":      "true",
		"PIPES_RETRY_MAX_ATTEMPTS": "7",
		"PIPES_RETRY_DELAY":        "1s",
		"PIPES_HTTP_TIMEOUT":       "2m",
		"PIPES_HTTP_USER_AGENT":    "pipes-env",
		"PIPES_MODEL_ENDPOINT":     "http://model.internal/generate",
	}

	envCfg = &Config{
		Workers:  3,
		LogLevel: "error",
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 7,
			Delay:       time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:   2 * time.Minute,
			UserAgent: "pipes-env",
		},
		Model: ModelConfig{
			Endpoint: "http://model.internal/generate",
		},
	}
)

func setEnvs(t *testing.T, vars map[string]string) {
	t.Helper()

	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func Test_Load(t *testing.T) { //nolint:paralleltest // t.Setenv is used
	tests := []struct {
		name     string
		givePath string
		giveEnvs map[string]string
		want     *Config
		wantErr  string
	}{
		{
			name:     "loads from yaml file",
			givePath: filepath.Join("testdata", "config.yml"),
			want:     fileCfg,
		},
		{
			name:     "env vars override the file",
			givePath: filepath.Join("testdata", "config.yml"),
			giveEnvs: envVars,
			want:     envCfg,
		},
		{
			name:     "falls back to env vars when the file does not exist",
			givePath: filepath.Join("testdata", "missing.yml"),
			giveEnvs: envVars,
			want:     envCfg,
		},
		{
			name:     "loads from toml file with defaults",
			givePath: filepath.Join("testdata", "config.toml"),
			want: &Config{
				Workers:  2,
				LogLevel: "warn",
				Retry: RetryConfig{
					MaxAttempts: operations.DefaultRetryPolicy().MaxAttempts,
					Delay:       operations.DefaultRetryPolicy().Delay,
				},
				HTTP: HTTPConfig{
					Timeout:   5 * time.Second,
					UserAgent: "pipes",
				},
			},
		},
		{
			name:     "legacy log level variable",
			giveEnvs: map[string]string{"LOG_LEVEL": "debug"},
			want: func() *Config {
				c := Default()
				c.LogLevel = "debug"

				return c
			}(),
		},
		{
			name:     "invalid worker count",
			giveEnvs: map[string]string{"PIPES_WORKERS": "0"},
			wantErr:  "workers must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnvs(t, tt.giveEnvs)

			got, err := Load(tt.givePath)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Load_InvalidFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [1"), 0o600))

	_, err := Load(path)
	require.ErrorContains(t, err, "read config")
}

func Test_Load_RoundTripsYAML(t *testing.T) {
	t.Parallel()

	b, err := yaml.Marshal(fileCfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, b, 0o600))

	// yaml.v3 writes durations in their string form.
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, fileCfg, got)
}

func Test_Default(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, operations.DefaultWorkers, cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Retry.Enabled)
	assert.Nil(t, cfg.Retry.Policy())
	require.NoError(t, cfg.Validate())
}

func Test_RetryConfig_Policy(t *testing.T) {
	t.Parallel()

	c := RetryConfig{Enabled: true, MaxAttempts: 4, Delay: time.Millisecond}
	assert.Equal(t, &operations.RetryPolicy{MaxAttempts: 4, Delay: time.Millisecond}, c.Policy())
}

func Test_Validate(t *testing.T) {
	t.Parallel()

	cfg := &Config{Workers: -1, Retry: RetryConfig{Enabled: true}, HTTP: HTTPConfig{Timeout: -time.Second}}
	err := cfg.Validate()
	require.ErrorContains(t, err, "workers must be positive")
	require.ErrorContains(t, err, "retry.max_attempts")
	require.ErrorContains(t, err, "http.timeout")
}
