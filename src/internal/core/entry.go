// FILE: logship/src/internal/core/entry.go
package core

import (
	"fmt"
	"strings"
)

// Severity is the wire level of a log entry.
type Severity int

const (
	SeverityDebug Severity = iota + 1
	SeverityVerbose
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityVerbose:
		return "verbose"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Valid reports whether s is one of the defined severities.
func (s Severity) Valid() bool {
	return s >= SeverityDebug && s <= SeverityCritical
}

// ParseSeverity maps a severity name to its value.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return SeverityDebug, nil
	case "verbose", "trace":
		return SeverityVerbose, nil
	case "info", "information":
		return SeverityInfo, nil
	case "warn", "warning":
		return SeverityWarning, nil
	case "error", "err":
		return SeverityError, nil
	case "critical", "fatal", "crit":
		return SeverityCritical, nil
	default:
		return 0, fmt.Errorf("unknown severity: %s", name)
	}
}

// LogEntry represents a single log line waiting to be shipped
type LogEntry struct {
	Text       string   `json:"text"`
	Timestamp  float64  `json:"timestamp"` // ms since epoch, server adjusted
	Severity   Severity `json:"severity"`
	Category   string   `json:"category"`
	ClassName  string   `json:"className"`
	MethodName string   `json:"methodName"`
	ThreadID   string   `json:"threadId"`
}

// BulkRequest is the payload posted to the ingestion endpoint.
type BulkRequest struct {
	PrivateKey      string     `json:"privateKey"`
	ApplicationName string     `json:"applicationName"`
	SubsystemName   string     `json:"subsystemName"`
	ComputerName    string     `json:"computerName"`
	LogEntries      []LogEntry `json:"logEntries"`
}

// WithEntries returns a copy of the request carrying entries.
func (r BulkRequest) WithEntries(entries []LogEntry) BulkRequest {
	r.LogEntries = entries
	return r
}
