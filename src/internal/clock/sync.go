// FILE: logship/src/internal/clock/sync.go
package clock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/log"
)

// TimeSource reports the difference between remote and local clocks.
type TimeSource interface {
	GetTimeOffset(ctx context.Context) (int64, error)
}

// Sync keeps the offset applied to locally generated timestamps in step with
// the remote service.
type Sync struct {
	source   TimeSource
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time

	// Serializes refreshes; readers only touch the atomics
	refreshMu sync.Mutex

	offsetMillis atomic.Int64
	lastSync     atomic.Int64 // unix ms, 0 = never

	// Statistics
	totalSyncs  atomic.Uint64
	failedSyncs atomic.Uint64
}

// NewSync creates a clock synchronizer refreshing at most once per interval.
func NewSync(source TimeSource, interval time.Duration, logger *log.Logger) *Sync {
	return &Sync{
		source:   source,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Offset returns the current offset in milliseconds.
func (s *Sync) Offset() int64 {
	return s.offsetMillis.Load()
}

// LastSync returns when the offset was last refreshed, zero if never.
func (s *Sync) LastSync() time.Time {
	ms := s.lastSync.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Now returns the server-adjusted time in milliseconds since epoch.
func (s *Sync) Now() float64 {
	local := float64(s.now().UnixNano()) / float64(time.Millisecond)
	return local + float64(s.offsetMillis.Load())
}

// Due reports whether the refresh interval has elapsed.
func (s *Sync) Due() bool {
	return s.now().UnixMilli()-s.lastSync.Load() >= s.interval.Milliseconds()
}

// MaybeRefresh refreshes the offset when due. Failures are logged and the
// previous offset is kept. Returns true if a new offset was stored.
func (s *Sync) MaybeRefresh(ctx context.Context) bool {
	if !s.Due() {
		return false
	}
	if err := s.Refresh(ctx); err != nil {
		s.logger.Error("msg", "Time sync failed, keeping previous offset",
			"component", "clock_sync",
			"offset_ms", s.Offset(),
			"error", err)
		return false
	}
	return true
}

// Refresh queries the time source unconditionally.
func (s *Sync) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.totalSyncs.Add(1)
	offset, err := s.source.GetTimeOffset(ctx)
	if err != nil {
		s.failedSyncs.Add(1)
		return fmt.Errorf("failed to get time offset: %w", err)
	}

	s.offsetMillis.Store(offset)
	s.lastSync.Store(s.now().UnixMilli())

	s.logger.Debug("msg", "Time offset updated",
		"component", "clock_sync",
		"offset_ms", offset)
	return nil
}

// GetStats returns synchronization statistics.
func (s *Sync) GetStats() map[string]any {
	return map[string]any{
		"offset_ms":    s.Offset(),
		"last_sync":    s.LastSync(),
		"total_syncs":  s.totalSyncs.Load(),
		"failed_syncs": s.failedSyncs.Load(),
		"interval":     s.interval.String(),
	}
}
