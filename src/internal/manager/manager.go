// FILE: logship/src/internal/manager/manager.go
package manager

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"logship/src/internal/buffer"
	"logship/src/internal/clock"
	"logship/src/internal/config"
	"logship/src/internal/core"
	"logship/src/internal/flow"
	"logship/src/internal/format"
	"logship/src/internal/version"

	"github.com/lixenwraith/log"
)

// Bound for the clock sync forced by Configure
const configureSyncTimeout = 10 * time.Second

// Transport ships bulk requests and reports the server clock offset.
type Transport interface {
	Send(ctx context.Context, bulk core.BulkRequest) error
	GetTimeOffset(ctx context.Context) (int64, error)
}

// Manager buffers log entries from producers and ships them in size-bounded
// bulks from a single background flush loop.
type Manager struct {
	config    config.BufferConfig
	buffer    *buffer.Buffer
	clock     *clock.Sync
	transport Transport
	formatter format.Formatter
	limiter   *flow.RateLimiter
	logger    *log.Logger
	hostname  func() (string, error)

	// Bulk template, written once by Configure and copied every cycle
	templateMu  sync.RWMutex
	template    core.BulkRequest
	configureMu sync.Mutex
	configured  atomic.Bool

	// Lifecycle
	started  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Statistics
	startTime     time.Time
	totalCycles   atomic.Uint64
	totalBulks    atomic.Uint64
	failedBulks   atomic.Uint64
	entriesSent   atomic.Uint64
	entriesLost   atomic.Uint64
	encodeErrors  atomic.Uint64
	rateLimited   atomic.Uint64
	panics        atomic.Uint64
	lastFlush     atomic.Value // time.Time
	lastInterval  atomic.Int64 // ns
	lastSendError atomic.Value // string
}

// New creates a manager. Zero-valued buffer settings fall back to defaults.
// limiter may be nil.
func New(cfg config.BufferConfig, transport Transport, formatter format.Formatter, limiter *flow.RateLimiter, logger *log.Logger) (*Manager, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}
	if formatter == nil {
		return nil, fmt.Errorf("formatter cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	applyDefaults(&cfg)

	m := &Manager{
		config:    cfg,
		buffer:    buffer.New(cfg.CapacityBytes),
		clock:     clock.NewSync(transport, cfg.SyncInterval(), logger),
		transport: transport,
		formatter: formatter,
		limiter:   limiter,
		logger:    logger,
		hostname:  os.Hostname,
		done:      make(chan struct{}),
		startTime: time.Now(),
	}
	m.lastFlush.Store(time.Time{})
	m.lastSendError.Store("")
	m.lastInterval.Store(int64(cfg.NormalInterval()))

	return m, nil
}

func applyDefaults(cfg *config.BufferConfig) {
	def := config.DefaultBufferConfig()
	if cfg.CapacityBytes <= 0 {
		cfg.CapacityBytes = def.CapacityBytes
	}
	if cfg.MaxChunkBytes <= 0 {
		cfg.MaxChunkBytes = def.MaxChunkBytes
	}
	if cfg.NormalIntervalMS <= 0 {
		cfg.NormalIntervalMS = def.NormalIntervalMS
	}
	if cfg.FastIntervalMS <= 0 {
		cfg.FastIntervalMS = def.FastIntervalMS
	}
	if cfg.SyncIntervalSec <= 0 {
		cfg.SyncIntervalSec = def.SyncIntervalSec
	}
	if cfg.SendTimeoutMS <= 0 {
		cfg.SendTimeoutMS = def.SendTimeoutMS
	}
	if cfg.ShutdownTimeoutMS < 0 {
		cfg.ShutdownTimeoutMS = def.ShutdownTimeoutMS
	}
}

// Configure sets the account identity attached to every bulk. Blank values
// are replaced with placeholders. Only the first call takes effect; later
// calls return true without changing anything.
func (m *Manager) Configure(privateKey, applicationName, subsystemName string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.panics.Add(1)
			m.logger.Error("msg", "Panic during configure",
				"component", "manager",
				"panic", r)
			ok = false
		}
	}()

	m.configureMu.Lock()
	defer m.configureMu.Unlock()

	if m.configured.Load() {
		m.logger.Debug("msg", "Manager already configured, ignoring",
			"component", "manager",
			"application", applicationName,
			"subsystem", subsystemName)
		return true
	}

	computerName, err := m.hostname()
	if err != nil || strings.TrimSpace(computerName) == "" {
		m.logger.Warn("msg", "Failed to resolve hostname",
			"component", "manager",
			"error", err)
		computerName = core.NoComputerName
	}

	tmpl := core.BulkRequest{
		PrivateKey:      orDefault(privateKey, core.NoPrivateKey),
		ApplicationName: orDefault(applicationName, core.NoApplicationName),
		SubsystemName:   orDefault(subsystemName, core.NoSubsystemName),
		ComputerName:    computerName,
	}

	m.templateMu.Lock()
	m.template = tmpl
	m.templateMu.Unlock()
	m.configured.Store(true)

	m.logger.Info("msg", "Manager configured",
		"component", "manager",
		"application", tmpl.ApplicationName,
		"subsystem", tmpl.SubsystemName,
		"computer", tmpl.ComputerName)

	ctx, cancel := context.WithTimeout(context.Background(), configureSyncTimeout)
	defer cancel()
	if err := m.clock.Refresh(ctx); err != nil {
		m.logger.Error("msg", "Initial time sync failed",
			"component", "manager",
			"error", err)
	}

	m.AddLogLine(
		fmt.Sprintf("logship %s started on %s", version.Short(), computerName),
		core.SeverityInfo, core.SDKCategory, "", "", "")

	return true
}

// Configured reports whether Configure has been called.
func (m *Manager) Configured() bool {
	return m.configured.Load()
}

// AddLogLine stamps and queues one entry. Capacity and rate-limit drops are
// silent and still return true; they only show up in GetStats. Returns false
// when the entry could not be encoded or a panic was recovered. Never blocks
// on space.
func (m *Manager) AddLogLine(message string, severity core.Severity, category, className, methodName, threadID string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.panics.Add(1)
			m.logger.Error("msg", "Panic while adding log line",
				"component", "manager",
				"panic", r)
			ok = false
		}
	}()

	if !severity.Valid() {
		severity = core.SeverityInfo
	}

	entry := core.LogEntry{
		Text:       message,
		Timestamp:  m.clock.Now(),
		Severity:   severity,
		Category:   category,
		ClassName:  className,
		MethodName: methodName,
		ThreadID:   threadID,
	}

	// Size is computed outside the buffer lock
	size, err := m.formatter.EntrySize(entry)
	if err != nil {
		m.encodeErrors.Add(1)
		m.logger.Error("msg", "Failed to encode log entry",
			"component", "manager",
			"category", category,
			"error", err)
		return false
	}

	if !m.limiter.Allow(size) {
		m.rateLimited.Add(1)
		return true
	}

	// A full buffer drops the entry; the buffer counts it
	m.buffer.Append(entry, size)
	return true
}

// Start launches the flush loop. It runs until Stop or ctx cancellation.
func (m *Manager) Start(ctx context.Context) error {
	select {
	case <-m.done:
		return fmt.Errorf("manager already stopped")
	default:
	}
	if !m.started.CompareAndSwap(false, true) {
		return fmt.Errorf("manager already started")
	}

	m.wg.Add(1)
	go m.flushLoop(ctx)

	m.logger.Info("msg", "Manager started",
		"component", "manager",
		"capacity_bytes", m.config.CapacityBytes,
		"max_chunk_bytes", m.config.MaxChunkBytes,
		"normal_interval", m.config.NormalInterval(),
		"fast_interval", m.config.FastInterval())
	return nil
}

// Stop ends the flush loop and makes a final best-effort drain bounded by
// the shutdown timeout. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.logger.Info("msg", "Stopping manager", "component", "manager")
		close(m.done)
		m.wg.Wait()

		m.drain()

		m.logger.Info("msg", "Manager stopped",
			"component", "manager",
			"bulks_sent", m.totalBulks.Load(),
			"entries_sent", m.entriesSent.Load(),
			"entries_lost", m.entriesLost.Load(),
			"entries_dropped", m.buffer.Dropped(),
			"entries_abandoned", m.buffer.Size())
	})
}

// flushLoop alternates between waiting and flushing one chunk.
func (m *Manager) flushLoop(ctx context.Context) {
	defer m.wg.Done()

	timer := time.NewTimer(m.config.NormalInterval())
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			timer.Reset(m.runCycle(ctx))
		case <-ctx.Done():
			return
		case <-m.done:
			return
		}
	}
}

// runCycle performs one scheduler iteration and returns the delay before
// the next one. Panics are recovered so the loop keeps running.
func (m *Manager) runCycle(ctx context.Context) (next time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			m.panics.Add(1)
			m.logger.Error("msg", "Panic in flush cycle",
				"component", "manager",
				"panic", r)
			next = m.config.NormalInterval()
		}
		m.lastInterval.Store(int64(next))
	}()

	m.totalCycles.Add(1)

	if m.configured.Load() {
		m.clock.MaybeRefresh(ctx)
	}

	if err := m.flushOnce(ctx); err != nil {
		m.logger.Error("msg", "Failed to send bulk",
			"component", "manager",
			"error", err)
	}

	return m.nextInterval()
}

// flushOnce ships at most one chunk. The chunk is lost if sending fails.
func (m *Manager) flushOnce(ctx context.Context) error {
	if !m.configured.Load() || m.buffer.Size() == 0 {
		return nil
	}

	n := buffer.SelectChunkSize(m.buffer, m.config.MaxChunkBytes)
	chunk := m.buffer.DrainChunk(n)
	if len(chunk) == 0 {
		return nil
	}

	m.templateMu.RLock()
	bulk := m.template.WithEntries(chunk)
	m.templateMu.RUnlock()

	sendCtx, cancel := context.WithTimeout(ctx, m.config.SendTimeout())
	defer cancel()

	m.totalBulks.Add(1)
	m.lastFlush.Store(time.Now())

	if err := m.send(sendCtx, bulk); err != nil {
		m.failedBulks.Add(1)
		m.entriesLost.Add(uint64(len(chunk)))
		m.lastSendError.Store(err.Error())
		return fmt.Errorf("bulk of %d entries lost: %w", len(chunk), err)
	}

	m.entriesSent.Add(uint64(len(chunk)))
	m.logger.Debug("msg", "Bulk sent",
		"component", "manager",
		"entries", len(chunk),
		"remaining", m.buffer.Size())
	return nil
}

// send converts a transport panic into an error
func (m *Manager) send(ctx context.Context, bulk core.BulkRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.panics.Add(1)
			err = fmt.Errorf("transport panic: %v", r)
		}
	}()
	return m.transport.Send(ctx, bulk)
}

// drain flushes until the buffer is empty or the shutdown timeout expires.
func (m *Manager) drain() {
	if !m.configured.Load() || m.buffer.Size() == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.config.ShutdownTimeout())
	defer cancel()

	for m.buffer.Size() > 0 && ctx.Err() == nil {
		if err := m.flushOnce(ctx); err != nil {
			m.logger.Warn("msg", "Final flush failed",
				"component", "manager",
				"error", err)
		}
	}
}

// nextInterval selects the fast cadence while more than half a chunk is queued.
func (m *Manager) nextInterval() time.Duration {
	if m.buffer.ByteSize() > m.config.MaxChunkBytes/2 {
		return m.config.FastInterval()
	}
	return m.config.NormalInterval()
}

// GetStats returns manager statistics, including its components.
func (m *Manager) GetStats() map[string]any {
	lastFlush, _ := m.lastFlush.Load().(time.Time)
	lastErr, _ := m.lastSendError.Load().(string)

	stats := map[string]any{
		"configured":      m.configured.Load(),
		"uptime_seconds":  int64(time.Since(m.startTime).Seconds()),
		"total_cycles":    m.totalCycles.Load(),
		"total_bulks":     m.totalBulks.Load(),
		"failed_bulks":    m.failedBulks.Load(),
		"entries_sent":    m.entriesSent.Load(),
		"entries_lost":    m.entriesLost.Load(),
		"encode_errors":   m.encodeErrors.Load(),
		"rate_limited":    m.rateLimited.Load(),
		"panics":          m.panics.Load(),
		"last_flush":      lastFlush,
		"last_send_error": lastErr,
		"next_interval":   time.Duration(m.lastInterval.Load()).String(),
		"buffer":          m.buffer.GetStats(),
		"clock":           m.clock.GetStats(),
		"rate_limiter":    m.limiter.GetStats(),
	}

	if s, ok := m.transport.(interface{ GetStats() map[string]any }); ok {
		stats["transport"] = s.GetStats()
	}

	return stats
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
