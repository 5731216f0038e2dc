// FILE: logship/src/internal/config/validation.go
package config

import (
	"fmt"
	"net/url"
	"strings"

	"logship/src/internal/core"

	lconfig "github.com/lixenwraith/config"
)

// validateConfig is the centralized validator for the entire configuration
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := validateLogConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := validateBuffer(&cfg.Buffer); err != nil {
		return fmt.Errorf("buffer config: %w", err)
	}

	if err := validateTransport(&cfg.Transport); err != nil {
		return fmt.Errorf("transport config: %w", err)
	}

	if err := validateRateLimit(&cfg.RateLimit); err != nil {
		return fmt.Errorf("rate limit config: %w", err)
	}

	if err := validateSource(&cfg.Source); err != nil {
		return fmt.Errorf("source config: %w", err)
	}

	if !cfg.DisableStatusReporter && cfg.StatusIntervalSec < 1 {
		return fmt.Errorf("status interval must be positive: %d", cfg.StatusIntervalSec)
	}

	return nil
}

func validateLogConfig(cfg *LogConfig) error {
	validOutputs := map[string]bool{
		"file": true, "stdout": true, "stderr": true,
		"both": true, "none": true,
	}
	if !validOutputs[cfg.Output] {
		return fmt.Errorf("invalid log output mode: %s", cfg.Output)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	validTargets := map[string]bool{
		"stdout": true, "stderr": true, "split": true,
	}
	if !validTargets[cfg.Console.Target] {
		return fmt.Errorf("invalid console target: %s", cfg.Console.Target)
	}

	validFormats := map[string]bool{
		"txt": true, "json": true, "": true,
	}
	if !validFormats[cfg.Console.Format] {
		return fmt.Errorf("invalid console format: %s", cfg.Console.Format)
	}

	if cfg.Output == "file" || cfg.Output == "both" {
		if err := lconfig.NonEmpty(cfg.File.Directory); err != nil {
			return fmt.Errorf("file output requires a directory")
		}
		if err := lconfig.NonEmpty(cfg.File.Name); err != nil {
			return fmt.Errorf("file output requires a name")
		}
	}

	return nil
}

func validateBuffer(cfg *BufferConfig) error {
	if cfg.CapacityBytes < 1 {
		return fmt.Errorf("capacity must be positive: %d", cfg.CapacityBytes)
	}
	if cfg.MaxChunkBytes < 1 {
		return fmt.Errorf("max chunk size must be positive: %d", cfg.MaxChunkBytes)
	}
	if cfg.MaxChunkBytes > cfg.CapacityBytes {
		return fmt.Errorf("max chunk size %d exceeds capacity %d", cfg.MaxChunkBytes, cfg.CapacityBytes)
	}
	if cfg.NormalIntervalMS < 10 {
		return fmt.Errorf("normal interval too small: %d ms (min: 10ms)", cfg.NormalIntervalMS)
	}
	if cfg.FastIntervalMS < 10 {
		return fmt.Errorf("fast interval too small: %d ms (min: 10ms)", cfg.FastIntervalMS)
	}
	if cfg.FastIntervalMS > cfg.NormalIntervalMS {
		return fmt.Errorf("fast interval %d ms is slower than normal interval %d ms",
			cfg.FastIntervalMS, cfg.NormalIntervalMS)
	}
	if cfg.SyncIntervalSec < 1 {
		return fmt.Errorf("sync interval must be positive: %d", cfg.SyncIntervalSec)
	}
	if cfg.SendTimeoutMS < 1 {
		return fmt.Errorf("send timeout must be positive: %d", cfg.SendTimeoutMS)
	}
	if cfg.ShutdownTimeoutMS < 0 {
		return fmt.Errorf("shutdown timeout cannot be negative: %d", cfg.ShutdownTimeoutMS)
	}
	return nil
}

func validateTransport(cfg *TransportConfig) error {
	if err := lconfig.NonEmpty(cfg.URL); err != nil {
		return fmt.Errorf("url is required")
	}
	for name, raw := range map[string]string{"url": cfg.URL, "time_url": cfg.TimeURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, raw, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s must use http or https: %s", name, raw)
		}
		if u.Host == "" {
			return fmt.Errorf("%s has no host: %s", name, raw)
		}
	}

	if cfg.TimeoutSec < 1 {
		return fmt.Errorf("timeout must be positive: %d", cfg.TimeoutSec)
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative: %d", cfg.MaxRetries)
	}
	if cfg.RetryDelayMS < 0 {
		return fmt.Errorf("retry delay cannot be negative: %d", cfg.RetryDelayMS)
	}
	if cfg.RetryBackoff < 1.0 {
		return fmt.Errorf("retry backoff must be >= 1.0: %f", cfg.RetryBackoff)
	}
	if err := validateTLSClient(&cfg.TLS); err != nil {
		return fmt.Errorf("tls: %w", err)
	}
	return nil
}

func validateSource(cfg *SourceConfig) error {
	switch cfg.Type {
	case "stdin":
	case "file":
		if err := lconfig.NonEmpty(cfg.Path); err != nil {
			return fmt.Errorf("file source requires a path")
		}
	default:
		return fmt.Errorf("invalid source type: %s (must be 'stdin' or 'file')", cfg.Type)
	}
	if strings.TrimSpace(cfg.Category) == "" {
		return fmt.Errorf("category is required")
	}
	if _, err := core.ParseSeverity(cfg.DefaultSeverity); err != nil {
		return err
	}
	if cfg.MaxLineBytes < 1 {
		return fmt.Errorf("max line size must be positive: %d", cfg.MaxLineBytes)
	}
	for i := range cfg.Filters {
		if err := validateFilter(i, &cfg.Filters[i]); err != nil {
			return err
		}
	}
	return nil
}
