// FILE: logship/src/cmd/logship/flags.go
package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// flagConfig holds command-line settings that override the config file.
type flagConfig struct {
	ConfigFile  string
	ShowVersion bool
	Quiet       bool
	Category    string
	LogLevel    string
}

// parseFlags parses args, excluding the program name.
func parseFlags(args []string, stderr io.Writer) (*flagConfig, error) {
	fc := &flagConfig{}

	fs := flag.NewFlagSet("logship", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, helpText) }

	fs.StringVar(&fc.ConfigFile, "config", "", "Config file path")
	fs.StringVar(&fc.ConfigFile, "c", "", "Config file path (shorthand)")
	fs.BoolVar(&fc.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&fc.ShowVersion, "v", false, "Show version information (shorthand)")
	fs.BoolVar(&fc.Quiet, "quiet", false, "Suppress all console output")
	fs.BoolVar(&fc.Quiet, "q", false, "Suppress all console output (shorthand)")
	fs.StringVar(&fc.Category, "category", "", "Category attached to shipped lines (overrides config)")
	fs.StringVar(&fc.LogLevel, "log-level", "", "Diagnostic log level: debug, info, warn, error (overrides config)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	// Validate log-level flag if provided
	if fc.LogLevel != "" {
		if _, err := parseLogLevel(fc.LogLevel); err != nil {
			return nil, fmt.Errorf("invalid log-level: %s (valid: debug, info, warn, error)", fc.LogLevel)
		}
	}

	return fc, nil
}
