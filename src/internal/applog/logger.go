// FILE: logship/src/internal/applog/logger.go
package applog

import (
	"bytes"
	"runtime"
	"strconv"

	"logship/src/internal/core"
)

// Sink receives entries from the façade; satisfied by *manager.Manager.
type Sink interface {
	AddLogLine(message string, severity core.Severity, category, className, methodName, threadID string) bool
}

// Logger is a per-category front end over the shipping manager.
type Logger struct {
	sink     Sink
	category string
}

// New creates a logger bound to one category.
func New(sink Sink, category string) *Logger {
	return &Logger{sink: sink, category: category}
}

// Category returns the default category of the logger.
func (l *Logger) Category() string {
	return l.category
}

type options struct {
	category   string
	className  string
	methodName string
	threadID   string
	hasThread  bool
}

// Option adjusts a single log call.
type Option func(*options)

// WithCategory overrides the logger category for one call.
func WithCategory(category string) Option {
	return func(o *options) { o.category = category }
}

// WithClassName attaches a class name.
func WithClassName(name string) Option {
	return func(o *options) { o.className = name }
}

// WithMethodName attaches a method name.
func WithMethodName(name string) Option {
	return func(o *options) { o.methodName = name }
}

// WithThreadID replaces the caller goroutine id.
func WithThreadID(id string) Option {
	return func(o *options) {
		o.threadID = id
		o.hasThread = true
	}
}

// Log queues a message. Capacity drops are silent; false means the sink
// failed to take the entry (encoding fault).
func (l *Logger) Log(severity core.Severity, message string, opts ...Option) bool {
	o := options{category: l.category}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasThread {
		o.threadID = goroutineID()
	}
	return l.sink.AddLogLine(message, severity, o.category, o.className, o.methodName, o.threadID)
}

// Debug logs at SeverityDebug.
func (l *Logger) Debug(message string, opts ...Option) bool {
	return l.Log(core.SeverityDebug, message, opts...)
}

// Verbose logs at SeverityVerbose.
func (l *Logger) Verbose(message string, opts ...Option) bool {
	return l.Log(core.SeverityVerbose, message, opts...)
}

// Info logs at SeverityInfo.
func (l *Logger) Info(message string, opts ...Option) bool {
	return l.Log(core.SeverityInfo, message, opts...)
}

// Warning logs at SeverityWarning.
func (l *Logger) Warning(message string, opts ...Option) bool {
	return l.Log(core.SeverityWarning, message, opts...)
}

// Error logs at SeverityError.
func (l *Logger) Error(message string, opts ...Option) bool {
	return l.Log(core.SeverityError, message, opts...)
}

// Critical logs at SeverityCritical.
func (l *Logger) Critical(message string, opts ...Option) bool {
	return l.Log(core.SeverityCritical, message, opts...)
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the id from the first line of the stack trace,
// "goroutine 42 [running]:". Returns "" if the format is unexpected.
func goroutineID() string {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	end := bytes.IndexByte(b, ' ')
	if end <= 0 {
		return ""
	}
	if _, err := strconv.ParseUint(string(b[:end]), 10, 64); err != nil {
		return ""
	}
	return string(b[:end])
}
