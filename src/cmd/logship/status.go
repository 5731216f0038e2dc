// FILE: logship/src/cmd/logship/status.go
package main

import (
	"context"
	"os"
	"time"
)

// statsProvider is implemented by the running shipper
type statsProvider interface {
	GetStats() map[string]any
}

// statusReporter periodically logs shipping statistics
func statusReporter(ctx context.Context, provider statsProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Safely get stats with recovery
			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("msg", "Panic in status reporter",
							"component", "status_reporter",
							"panic", r)
					}
				}()
				logger.Info(statusFields(provider.GetStats())...)
			}()
		}
	}
}

// statusFields flattens the stats tree into key/value log fields
func statusFields(stats map[string]any) []any {
	fields := []any{
		"msg", "Status report",
		"component", "status_reporter",
	}

	mgr, _ := stats["manager"].(map[string]any)
	if mgr != nil {
		fields = appendPresent(fields, mgr,
			"configured", "entries_sent", "entries_lost", "failed_bulks", "rate_limited", "next_interval")
		if buf, ok := mgr["buffer"].(map[string]any); ok {
			fields = appendPresent(fields, buf, "entries", "byte_size", "total_dropped")
		}
		if clk, ok := mgr["clock"].(map[string]any); ok {
			fields = appendPresent(fields, clk, "offset_ms")
		}
		if tr, ok := mgr["transport"].(map[string]any); ok {
			fields = appendPresent(fields, tr, "total_requests", "failed_requests", "retries", "bytes_sent")
		}
	}

	if src, ok := stats["source"].(map[string]any); ok {
		fields = appendPresent(fields, src, "total_lines", "filtered_lines", "failed_lines")
	}

	return fields
}

func appendPresent(fields []any, stats map[string]any, keys ...string) []any {
	for _, key := range keys {
		if v, ok := stats[key]; ok {
			fields = append(fields, key, v)
		}
	}
	return fields
}

func enableStatusReporter(disabledInConfig bool) bool {
	// Status reporter can be disabled via environment variable
	if os.Getenv("LOGSHIP_DISABLE_STATUS_REPORTER") == "1" {
		return false
	}
	return !disabledInConfig
}
