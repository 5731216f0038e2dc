// FILE: logship/src/cmd/logship/bootstrap_test.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"logship/src/internal/applog"
	"logship/src/internal/config"
	"logship/src/internal/core"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestLoggerArgs(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{Logging: config.DefaultLogConfig()}
	}

	t.Run("Quiet", func(t *testing.T) {
		cfg := base()
		cfg.Quiet = true
		args, err := loggerArgs(cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"disable_file=true", "enable_stdout=false", "level=255"}, args)
	})

	t.Run("Stderr", func(t *testing.T) {
		args, err := loggerArgs(base())
		require.NoError(t, err)
		assert.Contains(t, args, fmt.Sprintf("level=%d", log.LevelInfo))
		assert.Contains(t, args, "stdout_target=stderr")
		assert.Contains(t, args, "disable_file=true")
		assert.Contains(t, args, "format=txt")
	})

	t.Run("BothSplit", func(t *testing.T) {
		cfg := base()
		cfg.Logging.Output = "both"
		cfg.Logging.Console.Target = "split"
		args, err := loggerArgs(cfg)
		require.NoError(t, err)
		assert.Contains(t, args, "enable_stdout=true")
		assert.Contains(t, args, "directory=./log")
		assert.Contains(t, args, "name=logship")
		assert.Contains(t, args, "retention_period_hrs=168.0")
		assert.Contains(t, args, "stdout_split_mode=true")
	})

	t.Run("File", func(t *testing.T) {
		cfg := base()
		cfg.Logging.Output = "file"
		cfg.Logging.File.RetentionHours = 0
		args, err := loggerArgs(cfg)
		require.NoError(t, err)
		assert.Contains(t, args, "enable_stdout=false")
		assert.Contains(t, args, "max_size_mb=100")
		for _, a := range args {
			assert.False(t, strings.HasPrefix(a, "retention_period_hrs"))
		}
	})

	t.Run("InvalidOutput", func(t *testing.T) {
		cfg := base()
		cfg.Logging.Output = "syslog"
		_, err := loggerArgs(cfg)
		assert.Error(t, err)
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		cfg := base()
		cfg.Logging.Level = "loud"
		_, err := loggerArgs(cfg)
		assert.Error(t, err)
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]int64{
		"debug":   log.LevelDebug,
		"INFO":    log.LevelInfo,
		"warn":    log.LevelWarn,
		"warning": log.LevelWarn,
		"error":   log.LevelError,
	}
	for name, want := range tests {
		got, err := parseLogLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, int(want), got, name)
	}

	_, err := parseLogLevel("verbose")
	assert.Error(t, err)
}

func TestStatusFields(t *testing.T) {
	fields := statusFields(map[string]any{
		"manager": map[string]any{
			"configured":   true,
			"entries_sent": uint64(10),
			"buffer":       map[string]any{"entries": 3, "byte_size": int64(300)},
			"clock":        map[string]any{"offset_ms": int64(-4)},
		},
		"source": map[string]any{"total_lines": uint64(13)},
	})

	require.Zero(t, len(fields)%2)
	kv := make(map[any]any)
	for i := 0; i < len(fields); i += 2 {
		kv[fields[i]] = fields[i+1]
	}
	assert.Equal(t, "Status report", kv["msg"])
	assert.Equal(t, true, kv["configured"])
	assert.Equal(t, uint64(10), kv["entries_sent"])
	assert.Equal(t, 3, kv["entries"])
	assert.Equal(t, int64(-4), kv["offset_ms"])
	assert.Equal(t, uint64(13), kv["total_lines"])
	assert.NotContains(t, kv, "total_requests")
}

func TestEnableStatusReporter(t *testing.T) {
	t.Setenv("LOGSHIP_DISABLE_STATUS_REPORTER", "")
	assert.True(t, enableStatusReporter(false))
	assert.False(t, enableStatusReporter(true))

	t.Setenv("LOGSHIP_DISABLE_STATUS_REPORTER", "1")
	assert.False(t, enableStatusReporter(false))
}

// ingestServer is a real loopback HTTP server standing in for the service
type ingestServer struct {
	mu      sync.Mutex
	entries []core.LogEntry
	account core.BulkRequest
}

func (s *ingestServer) handler(ctx *fasthttp.RequestCtx) {
	if string(ctx.Path()) == "/sdk/v1/time" {
		ctx.SetBodyString(fmt.Sprintf("%d", time.Now().UnixMilli()*10000+621355968000000000))
		return
	}

	var bulk core.BulkRequest
	if err := json.Unmarshal(ctx.PostBody(), &bulk); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = bulk.WithEntries(nil)
	s.entries = append(s.entries, bulk.LogEntries...)
}

func TestBootstrapShipper_EndToEnd(t *testing.T) {
	logger = log.NewLogger()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &ingestServer{}
	server := &fasthttp.Server{Handler: srv.handler}
	go func() { _ = server.Serve(ln) }()
	defer func() { _ = server.Shutdown() }()

	base := "http://" + ln.Addr().String()
	cfg := &config.Config{
		Account: config.AccountConfig{
			PrivateKey:      "secret",
			ApplicationName: "shop",
			SubsystemName:   "checkout",
		},
		Buffer: config.DefaultBufferConfig(),
		Transport: config.TransportConfig{
			URL:          base + "/api/v1/logs",
			TimeURL:      base + "/sdk/v1/time",
			TimeoutSec:   5,
			MaxRetries:   1,
			RetryDelayMS: 10,
			RetryBackoff: 2,
			DisableProxy: true,
		},
		RateLimit: config.RateLimitConfig{Policy: "pass"},
		Source: config.SourceConfig{
			Category:        "checkout-log",
			DefaultSeverity: "info",
			Filters: []config.FilterConfig{
				{Type: config.FilterTypeExclude, Patterns: []string{"healthz"}},
			},
		},
	}

	input := "order 1 placed\nGET /healthz\n[ERROR] payment declined\n"
	app, err := bootstrapShipper(context.Background(), cfg, strings.NewReader(input))
	require.NoError(t, err)

	select {
	case <-app.source.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("source did not finish")
	}
	app.Shutdown()

	srv.mu.Lock()
	defer srv.mu.Unlock()

	assert.Equal(t, "secret", srv.account.PrivateKey)
	assert.Equal(t, "shop", srv.account.ApplicationName)
	assert.Equal(t, "checkout", srv.account.SubsystemName)
	assert.NotEmpty(t, srv.account.ComputerName)

	var lines []core.LogEntry
	for _, e := range srv.entries {
		if e.Category == "checkout-log" {
			lines = append(lines, e)
		}
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "order 1 placed", lines[0].Text)
	assert.Equal(t, core.SeverityInfo, lines[0].Severity)
	assert.Equal(t, "[ERROR] payment declined", lines[1].Text)
	assert.Equal(t, core.SeverityError, lines[1].Severity)
	assert.Equal(t, "stdin", lines[1].ClassName)

	// Startup entry shipped under the SDK category
	assert.Len(t, srv.entries, 3)
	assert.Equal(t, core.SDKCategory, srv.entries[0].Category)
}

func TestNewSource(t *testing.T) {
	logger = log.NewLogger()
	out := applog.New(&discardSink{}, "app")

	src, err := newSource(config.SourceConfig{Type: "stdin"}, strings.NewReader(""), nil, out)
	require.NoError(t, err)
	assert.Equal(t, "stdin", src.GetStats()["type"])

	src, err = newSource(config.SourceConfig{Type: "file", Path: "/var/log/app.log"}, nil, nil, out)
	require.NoError(t, err)
	assert.Equal(t, "file", src.GetStats()["type"])

	_, err = newSource(config.SourceConfig{Type: "kafka"}, nil, nil, out)
	assert.Error(t, err)
}

type discardSink struct{}

func (discardSink) AddLogLine(string, core.Severity, string, string, string, string) bool { return true }
