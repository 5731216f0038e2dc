// FILE: logship/src/internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"logship/src/internal/core"

	lconfig "github.com/lixenwraith/config"
)

// Config is the complete logship configuration.
type Config struct {
	// Disable all console output
	Quiet bool `toml:"quiet"`

	// Periodic status logging
	DisableStatusReporter bool  `toml:"disable_status_reporter"`
	StatusIntervalSec     int64 `toml:"status_interval_sec"`

	Account   AccountConfig   `toml:"account"`
	Buffer    BufferConfig    `toml:"buffer"`
	Transport TransportConfig `toml:"transport"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Source    SourceConfig    `toml:"source"`
	Logging   LogConfig       `toml:"logging"`
}

// AccountConfig identifies the sender to the ingestion service.
type AccountConfig struct {
	PrivateKey      string `toml:"private_key"`
	ApplicationName string `toml:"application_name"`
	SubsystemName   string `toml:"subsystem_name"`
}

// BufferConfig controls the in-memory buffer and the flush scheduler.
type BufferConfig struct {
	// Ceiling for queued serialized entries
	CapacityBytes int64 `toml:"capacity_bytes"`

	// Wire limit for one bulk's entries array
	MaxChunkBytes int64 `toml:"max_chunk_bytes"`

	// Flush cadence; fast is used while more than half a chunk is queued
	NormalIntervalMS int64 `toml:"normal_interval_ms"`
	FastIntervalMS   int64 `toml:"fast_interval_ms"`

	// Minimum time between clock synchronizations
	SyncIntervalSec int64 `toml:"sync_interval_sec"`

	// Upper bound for one scheduler send, retries included
	SendTimeoutMS int64 `toml:"send_timeout_ms"`

	// Upper bound for the final flush on shutdown
	ShutdownTimeoutMS int64 `toml:"shutdown_timeout_ms"`
}

// TransportConfig configures the HTTP transport.
type TransportConfig struct {
	URL          string  `toml:"url"`
	TimeURL      string  `toml:"time_url"`
	TimeoutSec   int64   `toml:"timeout_sec"`
	MaxRetries   int64   `toml:"max_retries"`
	RetryDelayMS int64   `toml:"retry_delay_ms"`
	RetryBackoff float64 `toml:"retry_backoff"`
	Compress     bool    `toml:"compress"`
	DisableProxy bool    `toml:"disable_proxy"`

	TLS TLSClientConfig `toml:"tls"`
}

// SourceConfig configures the line source of the CLI.
type SourceConfig struct {
	// "stdin" or "file"
	Type string `toml:"type"`

	// File source settings
	Path      string `toml:"path"`
	Follow    bool   `toml:"follow"`
	FromStart bool   `toml:"from_start"`
	Poll      bool   `toml:"poll"`

	// Category attached to every shipped line
	Category string `toml:"category"`

	// Severity used when none can be inferred from the line
	DefaultSeverity string `toml:"default_severity"`

	// Longest accepted input line
	MaxLineBytes int64 `toml:"max_line_bytes"`

	Filters []FilterConfig `toml:"filters"`
}

// NormalInterval returns the normal flush interval.
func (b BufferConfig) NormalInterval() time.Duration {
	return time.Duration(b.NormalIntervalMS) * time.Millisecond
}

// FastInterval returns the fast flush interval.
func (b BufferConfig) FastInterval() time.Duration {
	return time.Duration(b.FastIntervalMS) * time.Millisecond
}

// SyncInterval returns the clock sync interval.
func (b BufferConfig) SyncInterval() time.Duration {
	return time.Duration(b.SyncIntervalSec) * time.Second
}

// SendTimeout returns the deadline applied to each scheduled send.
func (b BufferConfig) SendTimeout() time.Duration {
	return time.Duration(b.SendTimeoutMS) * time.Millisecond
}

// ShutdownTimeout returns the final flush deadline.
func (b BufferConfig) ShutdownTimeout() time.Duration {
	return time.Duration(b.ShutdownTimeoutMS) * time.Millisecond
}

// Timeout returns the per-request timeout.
func (t TransportConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSec) * time.Second
}

// DefaultBufferConfig returns the buffer defaults.
func DefaultBufferConfig() BufferConfig {
	return BufferConfig{
		CapacityBytes:     core.DefaultCapacityBytes,
		MaxChunkBytes:     core.DefaultMaxChunkBytes,
		NormalIntervalMS:  core.DefaultNormalInterval.Milliseconds(),
		FastIntervalMS:    core.DefaultFastInterval.Milliseconds(),
		SyncIntervalSec:   int64(core.DefaultSyncInterval / time.Second),
		SendTimeoutMS:     120000,
		ShutdownTimeoutMS: 5000,
	}
}

// DefaultTransportConfig returns the transport defaults.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		URL:          "http://localhost:8080/api/v1/logs",
		TimeURL:      "http://localhost:8080/sdk/v1/time",
		TimeoutSec:   30,
		MaxRetries:   3,
		RetryDelayMS: 1000,
		RetryBackoff: 2.0,
	}
}

func defaults() *Config {
	return &Config{
		StatusIntervalSec: 30,
		Buffer:            DefaultBufferConfig(),
		Transport:         DefaultTransportConfig(),
		RateLimit: RateLimitConfig{
			Policy: "pass",
		},
		Source: SourceConfig{
			Type:            "stdin",
			Follow:          true,
			Category:        "stdin",
			DefaultSeverity: "info",
			MaxLineBytes:    1024 * 1024,
		},
		Logging: DefaultLogConfig(),
	}
}

// Load builds the configuration from defaults, the config file and
// LOGSHIP_ prefixed environment variables, in increasing precedence.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = GetConfigPath()
	}

	cfg, err := lconfig.NewBuilder().
		WithDefaults(defaults()).
		WithEnvPrefix("LOGSHIP_").
		WithFile(configPath).
		WithEnvTransform(customEnvTransform).
		WithSources(
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()

	if err != nil {
		// Missing file is fine, defaults and env still apply
		if !strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	finalConfig := &Config{}
	if err := cfg.Scan(finalConfig, ""); err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}

	return finalConfig, validateConfig(finalConfig)
}

func customEnvTransform(path string) string {
	env := strings.ReplaceAll(path, ".", "_")
	env = strings.ToUpper(env)
	env = "LOGSHIP_" + env
	return env
}

// GetConfigPath resolves the config file location from the environment.
func GetConfigPath() string {
	if configFile := os.Getenv("LOGSHIP_CONFIG_FILE"); configFile != "" {
		if filepath.IsAbs(configFile) {
			return configFile
		}
		if configDir := os.Getenv("LOGSHIP_CONFIG_DIR"); configDir != "" {
			return filepath.Join(configDir, configFile)
		}
		return configFile
	}

	if configDir := os.Getenv("LOGSHIP_CONFIG_DIR"); configDir != "" {
		return filepath.Join(configDir, "logship.toml")
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "logship.toml")
	}

	return "logship.toml"
}
