// FILE: logship/src/internal/transport/http.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"logship/src/internal/config"
	"logship/src/internal/core"
	"logship/src/internal/format"
	ltls "logship/src/internal/tls"
	"logship/src/internal/version"

	"github.com/klauspost/compress/gzip"
	"github.com/lixenwraith/log"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpproxy"
)

// .NET ticks (100ns since 0001-01-01) at the unix epoch
const (
	unixEpochTicks = 621355968000000000
	ticksPerMilli  = 10000
)

// errRejected marks a non-retryable response
var errRejected = errors.New("request rejected")

// HTTPTransport ships bulk requests to the ingestion endpoint and queries
// the server clock.
type HTTPTransport struct {
	// Configuration
	config *config.TransportConfig

	// Network
	client    *fasthttp.Client
	tlsClient *ltls.Client

	// Application
	formatter format.Formatter
	logger    *log.Logger
	gzipPool  bytebufferpool.Pool
	now       func() time.Time

	// Statistics
	totalRequests  atomic.Uint64
	failedRequests atomic.Uint64
	retries        atomic.Uint64
	bytesSent      atomic.Uint64
	lastSent       atomic.Value // time.Time
}

// NewHTTPTransport creates a new HTTP transport.
func NewHTTPTransport(opts *config.TransportConfig, formatter format.Formatter, logger *log.Logger) (*HTTPTransport, error) {
	if opts == nil {
		return nil, fmt.Errorf("transport options cannot be nil")
	}
	if formatter == nil {
		return nil, fmt.Errorf("transport formatter cannot be nil")
	}

	t := &HTTPTransport{
		config:    opts,
		formatter: formatter,
		logger:    logger,
		now:       time.Now,
	}
	t.lastSent.Store(time.Time{})

	timeout := opts.Timeout()
	t.client = &fasthttp.Client{
		MaxConnsPerHost:               10,
		MaxIdleConnDuration:           10 * time.Second,
		ReadTimeout:                   timeout,
		WriteTimeout:                  timeout,
		DisableHeaderNamesNormalizing: true,
	}

	// Honour HTTP_PROXY/HTTPS_PROXY/NO_PROXY unless told otherwise
	if !opts.DisableProxy {
		t.client.Dial = fasthttpproxy.FasthttpProxyHTTPDialerTimeout(timeout)
	}

	tlsClient, err := ltls.NewClient(opts.TLS, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure TLS: %w", err)
	}
	t.tlsClient = tlsClient
	t.client.TLSConfig = tlsClient.Config()

	return t, nil
}

// Send posts one bulk request, retrying network failures and 5xx responses
// with exponential backoff. 4xx responses are not retried.
func (t *HTTPTransport) Send(ctx context.Context, bulk core.BulkRequest) error {
	body, err := t.formatter.FormatBulk(bulk)
	if err != nil {
		t.failedRequests.Add(1)
		return fmt.Errorf("failed to format bulk: %w", err)
	}

	var contentEncoding string
	if t.config.Compress {
		body, err = t.compress(body)
		if err != nil {
			t.failedRequests.Add(1)
			return fmt.Errorf("failed to compress bulk: %w", err)
		}
		contentEncoding = "gzip"
	}

	var lastErr error
	retryDelay := time.Duration(t.config.RetryDelayMS) * time.Millisecond
	timeout := t.config.Timeout()

	for attempt := int64(0); attempt <= t.config.MaxRetries; attempt++ {
		if attempt > 0 {
			t.retries.Add(1)
			if err := wait(ctx, retryDelay); err != nil {
				break
			}

			// Calculate new delay with overflow protection
			newDelay := time.Duration(float64(retryDelay) * t.config.RetryBackoff)
			if newDelay > timeout || newDelay < retryDelay {
				retryDelay = timeout
			} else {
				retryDelay = newDelay
			}
		}

		lastErr = t.post(ctx, body, contentEncoding)
		if lastErr == nil {
			t.bytesSent.Add(uint64(len(body)))
			t.lastSent.Store(t.now())
			t.logger.Debug("msg", "Bulk sent successfully",
				"component", "http_transport",
				"entries", len(bulk.LogEntries),
				"bytes", len(body),
				"attempt", attempt+1)
			return nil
		}

		if errors.Is(lastErr, errRejected) {
			break
		}

		t.logger.Warn("msg", "HTTP request failed",
			"component", "http_transport",
			"attempt", attempt+1,
			"max_retries", t.config.MaxRetries,
			"error", lastErr)
	}

	t.failedRequests.Add(1)
	if ctx.Err() != nil && !errors.Is(lastErr, errRejected) {
		return fmt.Errorf("send aborted: %w (last error: %v)", ctx.Err(), lastErr)
	}
	return fmt.Errorf("failed to send bulk of %d entries: %w", len(bulk.LogEntries), lastErr)
}

// post performs a single POST attempt
func (t *HTTPTransport) post(ctx context.Context, body []byte, contentEncoding string) error {
	t.totalRequests.Add(1)

	// Acquire resources, release immediately after use
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(t.config.URL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if contentEncoding != "" {
		req.Header.Set("Content-Encoding", contentEncoding)
	}
	req.SetBody(body)

	if err := t.client.DoDeadline(req, resp, t.deadline(ctx)); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	responseBody := string(resp.Body())
	if statusCode >= 400 && statusCode < 500 {
		return fmt.Errorf("%w: server returned status %d: %s", errRejected, statusCode, responseBody)
	}
	return fmt.Errorf("server returned status %d: %s", statusCode, responseBody)
}

// GetTimeOffset returns the server clock minus the local clock in
// milliseconds. The time endpoint answers with .NET ticks.
func (t *HTTPTransport) GetTimeOffset(ctx context.Context) (int64, error) {
	if t.config.TimeURL == "" {
		return 0, nil
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(t.config.TimeURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("User-Agent", version.UserAgent())

	start := t.now()
	if err := t.client.DoDeadline(req, resp, t.deadline(ctx)); err != nil {
		return 0, fmt.Errorf("time request failed: %w", err)
	}
	end := t.now()

	if resp.StatusCode() != fasthttp.StatusOK {
		return 0, fmt.Errorf("time endpoint returned status %d", resp.StatusCode())
	}

	serverMillis, err := parseTicks(resp.Body())
	if err != nil {
		return 0, err
	}

	// Compare against the midpoint of the round trip
	localMillis := start.Add(end.Sub(start) / 2).UnixMilli()
	return serverMillis - localMillis, nil
}

// GetStats returns transport statistics.
func (t *HTTPTransport) GetStats() map[string]any {
	lastSent, _ := t.lastSent.Load().(time.Time)
	return map[string]any{
		"url":             t.config.URL,
		"compress":        t.config.Compress,
		"total_requests":  t.totalRequests.Load(),
		"failed_requests": t.failedRequests.Load(),
		"retries":         t.retries.Load(),
		"bytes_sent":      t.bytesSent.Load(),
		"last_sent":       lastSent,
		"tls":             t.tlsClient.GetStats(),
	}
}

// Close releases idle connections.
func (t *HTTPTransport) Close() {
	t.client.CloseIdleConnections()
}

func (t *HTTPTransport) compress(body []byte) ([]byte, error) {
	buf := t.gzipPool.Get()
	defer t.gzipPool.Put(buf)

	zw := gzip.NewWriter(buf)
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

// deadline is the earlier of the context deadline and the request timeout
func (t *HTTPTransport) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(t.config.Timeout())
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

func parseTicks(body []byte) (int64, error) {
	raw := strings.Trim(strings.TrimSpace(string(body)), `"`)
	ticks, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid server time '%s': %w", raw, err)
	}
	if ticks < unixEpochTicks {
		return 0, fmt.Errorf("server time before unix epoch: %d", ticks)
	}
	return (ticks - unixEpochTicks) / ticksPerMilli, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
