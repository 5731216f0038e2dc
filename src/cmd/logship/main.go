// FILE: logship/src/cmd/logship/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"logship/src/internal/config"
	"logship/src/internal/version"

	"github.com/lixenwraith/log"
	"golang.org/x/term"
)

var logger *log.Logger

func main() {
	// Parse flags first to get quiet mode early
	flagCfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Initialize output handler with quiet mode
	InitOutputHandler(flagCfg.Quiet)

	// Handle version flag
	if flagCfg.ShowVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// An explicit config file must exist; the default location is optional
	if flagCfg.ConfigFile != "" {
		if _, err := os.Stat(flagCfg.ConfigFile); err != nil {
			FatalError(2, "Config file not found: %s\n", flagCfg.ConfigFile)
		}
	}

	cfg, err := config.Load(flagCfg.ConfigFile)
	if err != nil {
		FatalError(1, "Failed to load config: %v\n", err)
	}
	applyFlagOverrides(cfg, flagCfg)

	// Initialize logger with quiet mode awareness
	if err := initializeLogger(cfg); err != nil {
		FatalError(1, "Failed to initialize logger: %v\n", err)
	}
	defer shutdownLogger()

	logger.Info("msg", "logship starting",
		"version", version.String(),
		"config_file", configPath(flagCfg),
		"log_output", cfg.Logging.Output)

	if cfg.Source.Type == "stdin" && term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Warn("msg", "stdin is a terminal, waiting for typed input",
			"component", "main")
		Print("Reading log lines from the terminal, press Ctrl+D to finish\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigHandler := NewSignalHandler()
	defer sigHandler.Stop()

	app, err := bootstrapShipper(ctx, cfg, os.Stdin)
	if err != nil {
		logger.Error("msg", "Failed to bootstrap shipper", "error", err)
		shutdownLogger()
		os.Exit(1)
	}

	if enableStatusReporter(cfg.DisableStatusReporter) {
		go statusReporter(ctx, app, time.Duration(cfg.StatusIntervalSec)*time.Second)
	}

	if sig := sigHandler.Wait(ctx, app.source.Done()); sig != nil {
		logger.Info("msg", "Shutdown signal received, starting graceful shutdown...",
			"signal", sig)
	} else {
		logger.Info("msg", "Input exhausted, flushing remaining entries")
	}
	cancel()

	// An in-flight request is not interrupted, it ends within the transport timeout
	deadline := cfg.Buffer.ShutdownTimeout() + cfg.Transport.Timeout() + 2*time.Second
	done := make(chan struct{})
	go func() {
		app.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("msg", "Shutdown complete")
	case <-time.After(deadline):
		logger.Error("msg", "Shutdown timeout exceeded - forcing exit")
		shutdownLogger()
		os.Exit(1)
	}
}

// applyFlagOverrides applies CLI flags on top of the loaded configuration
func applyFlagOverrides(cfg *config.Config, flagCfg *flagConfig) {
	if flagCfg.Quiet {
		cfg.Quiet = true
	}
	if flagCfg.Category != "" {
		cfg.Source.Category = flagCfg.Category
	}
	if flagCfg.LogLevel != "" {
		cfg.Logging.Level = flagCfg.LogLevel
	}
}

func configPath(flagCfg *flagConfig) string {
	if flagCfg.ConfigFile != "" {
		return flagCfg.ConfigFile
	}
	return config.GetConfigPath()
}

func shutdownLogger() {
	if logger != nil {
		if err := logger.Shutdown(2 * time.Second); err != nil {
			// Best effort - can't log the shutdown error
			Print("Logger shutdown error: %v\n", err)
		}
	}
}
