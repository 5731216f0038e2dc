// FILE: logship/src/cmd/logship/bootstrap.go
package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"logship/src/internal/applog"
	"logship/src/internal/config"
	"logship/src/internal/filter"
	"logship/src/internal/flow"
	"logship/src/internal/format"
	"logship/src/internal/manager"
	"logship/src/internal/source"
	"logship/src/internal/transport"
	"logship/src/internal/version"

	"github.com/lixenwraith/log"
)

// shipper wires the stdin source through the manager to the transport.
type shipper struct {
	transport *transport.HTTPTransport
	manager   *manager.Manager
	source    source.Source
}

// bootstrapShipper creates and starts every component
func bootstrapShipper(ctx context.Context, cfg *config.Config, input io.Reader) (*shipper, error) {
	formatter := format.NewJSONFormatter(logger)

	tr, err := transport.NewHTTPTransport(&cfg.Transport, formatter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	limiter := flow.NewRateLimiter(cfg.RateLimit, logger)

	mgr, err := manager.New(cfg.Buffer, tr, formatter, limiter, logger)
	if err != nil {
		tr.Close()
		return nil, fmt.Errorf("failed to create manager: %w", err)
	}

	chain, err := filter.NewChain(cfg.Source.Filters, logger)
	if err != nil {
		tr.Close()
		return nil, fmt.Errorf("failed to create filter chain: %w", err)
	}

	out := applog.New(mgr, cfg.Source.Category)
	src, err := newSource(cfg.Source, input, chain, out)
	if err != nil {
		tr.Close()
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	mgr.Configure(cfg.Account.PrivateKey, cfg.Account.ApplicationName, cfg.Account.SubsystemName)

	if err := mgr.Start(ctx); err != nil {
		tr.Close()
		return nil, fmt.Errorf("failed to start manager: %w", err)
	}
	if err := src.Start(); err != nil {
		mgr.Stop()
		tr.Close()
		return nil, fmt.Errorf("failed to start source: %w", err)
	}

	logger.Info("msg", "logship started",
		"version", version.Short(),
		"url", cfg.Transport.URL,
		"source", cfg.Source.Type,
		"category", cfg.Source.Category,
		"filters", chain.Len())

	return &shipper{
		transport: tr,
		manager:   mgr,
		source:    src,
	}, nil
}

// newSource creates the configured line source
func newSource(cfg config.SourceConfig, input io.Reader, chain *filter.Chain, out *applog.Logger) (source.Source, error) {
	switch cfg.Type {
	case "file":
		return source.NewFileSource(cfg, chain, out, logger)
	case "stdin", "":
		return source.NewStdinSource(input, cfg, chain, out, logger)
	default:
		return nil, fmt.Errorf("unknown source type: %s", cfg.Type)
	}
}

// Shutdown stops reading, drains the buffer and closes connections
func (s *shipper) Shutdown() {
	s.source.Stop()
	s.manager.Stop()
	s.transport.Close()
}

// GetStats returns statistics of all components
func (s *shipper) GetStats() map[string]any {
	return map[string]any{
		"manager": s.manager.GetStats(),
		"source":  s.source.GetStats(),
	}
}

// initializeLogger sets up the diagnostic logger based on configuration
func initializeLogger(cfg *config.Config) error {
	configArgs, err := loggerArgs(cfg)
	if err != nil {
		return err
	}
	logger = log.NewLogger()
	return logger.InitWithDefaults(configArgs...)
}

// loggerArgs translates the logging config into logger init arguments
func loggerArgs(cfg *config.Config) ([]string, error) {
	var configArgs []string

	if cfg.Quiet {
		// In quiet mode, disable ALL logging output
		return append(configArgs,
			"disable_file=true",
			"enable_stdout=false",
			"level=255"), nil
	}

	// Determine log level
	levelValue, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	configArgs = append(configArgs, fmt.Sprintf("level=%d", levelValue))

	// Configure based on output mode
	switch cfg.Logging.Output {
	case "none":
		configArgs = append(configArgs, "disable_file=true", "enable_stdout=false")

	case "stdout":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stdout")

	case "stderr":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stderr")

	case "file":
		configArgs = append(configArgs, "enable_stdout=false")
		configArgs = appendFileArgs(configArgs, cfg.Logging.File)

	case "both":
		configArgs = append(configArgs, "enable_stdout=true")
		configArgs = appendFileArgs(configArgs, cfg.Logging.File)
		configArgs = appendConsoleArgs(configArgs, cfg.Logging.Console)

	default:
		return nil, fmt.Errorf("invalid log output mode: %s", cfg.Logging.Output)
	}

	// Apply format if specified
	if cfg.Logging.Console.Format != "" {
		configArgs = append(configArgs, fmt.Sprintf("format=%s", cfg.Logging.Console.Format))
	}

	return configArgs, nil
}

func appendFileArgs(configArgs []string, file config.LogFileConfig) []string {
	configArgs = append(configArgs,
		fmt.Sprintf("directory=%s", file.Directory),
		fmt.Sprintf("name=%s", file.Name),
		fmt.Sprintf("max_size_mb=%d", file.MaxSizeMB),
		fmt.Sprintf("max_total_size_mb=%d", file.MaxTotalSizeMB))

	if file.RetentionHours > 0 {
		configArgs = append(configArgs,
			fmt.Sprintf("retention_period_hrs=%.1f", file.RetentionHours))
	}
	return configArgs
}

func appendConsoleArgs(configArgs []string, console config.LogConsoleConfig) []string {
	target := console.Target
	if target == "" {
		target = "stderr"
	}

	// Split mode routes by level
	if target == "split" {
		return append(configArgs, "stdout_split_mode=true", "stdout_target=split")
	}
	return append(configArgs, fmt.Sprintf("stdout_target=%s", target))
}

func parseLogLevel(level string) (int, error) {
	switch strings.ToLower(level) {
	case "debug":
		return int(log.LevelDebug), nil
	case "info":
		return int(log.LevelInfo), nil
	case "warn", "warning":
		return int(log.LevelWarn), nil
	case "error":
		return int(log.LevelError), nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}
