// Package config defines the configuration schema for callhub-mcp.
//
// Settings live in ~/.callhub-mcp/config.yaml; credentials live in the
// environment (optionally loaded from a .env file, see env.go). Retry knobs
// can be overridden per process through MAX_RETRIES / INITIAL_BACKOFF /
// MAX_BACKOFF / BACKOFF_FACTOR.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// RetryConfig holds the dispatch-core backoff policy.
type RetryConfig struct {
	MaxRetries     int     `yaml:"maxRetries"`
	InitialBackoff float64 `yaml:"initialBackoffSeconds"`
	MaxBackoff     float64 `yaml:"maxBackoffSeconds"`
	BackoffFactor  float64 `yaml:"backoffFactor"`
}

func defaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 2,
		MaxBackoff:     60,
		BackoffFactor:  2,
	}
}

// InitialBackoffDuration returns the initial backoff as a time.Duration.
func (r RetryConfig) InitialBackoffDuration() time.Duration {
	return time.Duration(r.InitialBackoff * float64(time.Second))
}

// MaxBackoffDuration returns the backoff cap as a time.Duration.
func (r RetryConfig) MaxBackoffDuration() time.Duration {
	return time.Duration(r.MaxBackoff * float64(time.Second))
}

// ActivationConfig holds agent-activation workflow settings.
type ActivationConfig struct {
	BatchSize            int    `yaml:"batchSize"`
	StateDir             string `yaml:"stateDir"`
	LogDir               string `yaml:"logDir"`
	RecordTimeoutSeconds int    `yaml:"recordTimeoutSeconds"`
	// RetrySchedule is an optional cron expression; when set, unfinished
	// activation jobs are re-run on that schedule while `serve` is running.
	RetrySchedule string `yaml:"retrySchedule"`
	// PasswordEnv names the environment variable holding the activation
	// password used by scheduled re-runs.
	PasswordEnv string `yaml:"passwordEnv"`
	// ProgressAddr, when set (e.g. "127.0.0.1:18791"), serves a WebSocket
	// progress feed of running batch jobs.
	ProgressAddr string `yaml:"progressAddr"`
}

func defaultActivationConfig() ActivationConfig {
	return ActivationConfig{
		BatchSize:            10,
		StateDir:             filepath.Join(DataDir(), "state"),
		LogDir:               filepath.Join(DataDir(), "logs"),
		RecordTimeoutSeconds: 60,
		PasswordEnv:          "CALLHUB_ACTIVATION_PASSWORD",
	}
}

// RecordTimeout returns the per-record browser timeout.
func (a ActivationConfig) RecordTimeout() time.Duration {
	return time.Duration(a.RecordTimeoutSeconds) * time.Second
}

// NotifyConfig holds operator-notification settings.
type NotifyConfig struct {
	SlackWebhookURL string `yaml:"slackWebhookUrl"`
}

// Config is the root configuration object.
type Config struct {
	LogLevel   string           `yaml:"logLevel"`
	Retry      RetryConfig      `yaml:"retry"`
	Activation ActivationConfig `yaml:"activation"`
	Notify     NotifyConfig     `yaml:"notify"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		LogLevel:   "info",
		Retry:      defaultRetryConfig(),
		Activation: defaultActivationConfig(),
	}
}

// ConfigPath returns the default configuration file path:
// ~/.callhub-mcp/config.yaml.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// DataDir returns the callhub-mcp data directory: ~/.callhub-mcp.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".callhub-mcp"
	}
	return filepath.Join(home, ".callhub-mcp")
}

// Load reads and parses the config file at path.
// If path is empty, ConfigPath() is used. A missing file yields defaults.
// Retry knobs are then overridden from the environment if set.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyRetryEnv(&cfg.Retry)
	return &cfg, nil
}

// Save writes cfg to path as YAML. If path is empty, ConfigPath() is used.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func applyRetryEnv(r *RetryConfig) {
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			r.MaxRetries = n
		}
	}
	if v := os.Getenv("INITIAL_BACKOFF"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			r.InitialBackoff = f
		}
	}
	if v := os.Getenv("MAX_BACKOFF"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			r.MaxBackoff = f
		}
	}
	if v := os.Getenv("BACKOFF_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 1 {
			r.BackoffFactor = f
		}
	}
}
