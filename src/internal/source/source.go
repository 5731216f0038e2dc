// FILE: logship/src/internal/source/source.go
package source

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"logship/src/internal/applog"
	"logship/src/internal/config"
	"logship/src/internal/core"
	"logship/src/internal/filter"

	"github.com/lixenwraith/log"
)

const defaultMaxLineBytes = 1024 * 1024

// Source is an input stream of log lines feeding the shipper.
type Source interface {
	// Begins reading from the source
	Start() error

	// Stops processing further lines
	Stop()

	// Closed once the input is exhausted or the source is stopped
	Done() <-chan struct{}

	// Returns source statistics
	GetStats() map[string]any
}

// lineShipper turns raw lines into façade calls: severity inference,
// truncation and filtering. Shared by all sources.
type lineShipper struct {
	maxLineBytes    int
	defaultSeverity core.Severity
	chain           *filter.Chain
	out             *applog.Logger
	logger          *log.Logger
	component       string

	// Statistics
	totalLines     atomic.Uint64
	filteredLines  atomic.Uint64
	failedLines    atomic.Uint64
	truncatedLines atomic.Uint64
	startTime      time.Time
	lastEntryTime  atomic.Value // time.Time
}

func (s *lineShipper) init(cfg config.SourceConfig, chain *filter.Chain, out *applog.Logger, logger *log.Logger, component string) error {
	if out == nil {
		return fmt.Errorf("output logger cannot be nil")
	}

	severity := core.SeverityInfo
	if cfg.DefaultSeverity != "" {
		parsed, err := core.ParseSeverity(cfg.DefaultSeverity)
		if err != nil {
			return fmt.Errorf("default severity: %w", err)
		}
		severity = parsed
	}

	s.maxLineBytes = int(cfg.MaxLineBytes)
	if s.maxLineBytes <= 0 {
		s.maxLineBytes = defaultMaxLineBytes
	}
	s.defaultSeverity = severity
	s.chain = chain
	s.out = out
	s.logger = logger
	s.component = component
	s.startTime = time.Now()
	s.lastEntryTime.Store(time.Time{})
	return nil
}

// emit ships one line unless it is empty or filtered out
func (s *lineShipper) emit(text string, truncated bool) {
	if text == "" {
		return
	}
	if len(text) > s.maxLineBytes {
		text = text[:runeBoundary(text, s.maxLineBytes)]
		truncated = true
	}

	s.totalLines.Add(1)
	s.lastEntryTime.Store(time.Now())

	if truncated {
		s.truncatedLines.Add(1)
		s.logger.Debug("msg", "Line truncated",
			"component", s.component,
			"max_line_bytes", s.maxLineBytes)
	}

	severity, ok := inferSeverity(text)
	if !ok {
		severity = s.defaultSeverity
	}

	entry := core.LogEntry{
		Text:     text,
		Severity: severity,
		Category: s.out.Category(),
	}
	if !s.chain.Apply(entry) {
		s.filteredLines.Add(1)
		return
	}

	if !s.out.Log(severity, text, applog.WithClassName(s.component)) {
		s.failedLines.Add(1)
	}
}

func (s *lineShipper) stats(sourceType string) map[string]any {
	lastEntry, _ := s.lastEntryTime.Load().(time.Time)

	return map[string]any{
		"type":            sourceType,
		"total_lines":     s.totalLines.Load(),
		"filtered_lines":  s.filteredLines.Load(),
		"failed_lines":    s.failedLines.Load(),
		"truncated_lines": s.truncatedLines.Load(),
		"start_time":      s.startTime,
		"last_entry_time": lastEntry,
		"filters":         s.chain.GetStats(),
	}
}

// runeBoundary returns the largest cut point <= n that does not split a
// UTF-8 sequence.
func runeBoundary[T ~string | ~[]byte](s T, n int) int {
	if n >= len(s) {
		return len(s)
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}

var severityMarkers = []struct {
	patterns []string
	severity core.Severity
}{
	{[]string{"[FATAL]", "FATAL:", " FATAL ", "[CRITICAL]", "CRITICAL:", " CRITICAL ", "[CRIT]", "CRIT:"}, core.SeverityCritical},
	{[]string{"[ERROR]", "ERROR:", " ERROR ", "ERR:", "[ERR]"}, core.SeverityError},
	{[]string{"[WARN]", "WARN:", " WARN ", "WARNING:", "[WARNING]", " WARNING "}, core.SeverityWarning},
	{[]string{"[INFO]", "INFO:", " INFO ", "[INF]", "INF:"}, core.SeverityInfo},
	{[]string{"[DEBUG]", "DEBUG:", " DEBUG ", "[DBG]", "DBG:"}, core.SeverityDebug},
	{[]string{"[TRACE]", "TRACE:", " TRACE ", "[VERBOSE]", "VERBOSE:", " VERBOSE "}, core.SeverityVerbose},
}

// inferSeverity looks for a level marker in the line. The first matching
// group wins, most severe first.
func inferSeverity(line string) (core.Severity, bool) {
	upperLine := strings.ToUpper(line)
	for _, group := range severityMarkers {
		for _, pattern := range group.patterns {
			if strings.Contains(upperLine, pattern) {
				return group.severity, true
			}
		}
	}
	return 0, false
}
