// FILE: logship/src/internal/clock/sync_test.go
package clock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu     sync.Mutex
	offset int64
	err    error
	calls  int
}

func (f *fakeSource) GetTimeOffset(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.offset, f.err
}

func (f *fakeSource) set(offset int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offset, f.err = offset, err
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestSync(src TimeSource, interval time.Duration) (*Sync, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewSync(src, interval, log.NewLogger())
	s.now = clk.now
	return s, clk
}

func TestSync_MaybeRefresh(t *testing.T) {
	src := &fakeSource{offset: 1500}
	s, clk := newTestSync(src, 5*time.Minute)

	// never synced -> due immediately
	assert.True(t, s.MaybeRefresh(context.Background()))
	assert.Equal(t, int64(1500), s.Offset())
	assert.Equal(t, 1, src.calls)

	src.set(2500, nil)
	clk.t = clk.t.Add(4 * time.Minute)
	assert.False(t, s.MaybeRefresh(context.Background()))
	assert.Equal(t, int64(1500), s.Offset())
	assert.Equal(t, 1, src.calls)

	clk.t = clk.t.Add(time.Minute)
	assert.True(t, s.MaybeRefresh(context.Background()))
	assert.Equal(t, int64(2500), s.Offset())
	assert.Equal(t, 2, src.calls)
}

func TestSync_FailureKeepsOffset(t *testing.T) {
	src := &fakeSource{offset: -300}
	s, clk := newTestSync(src, time.Minute)

	require.True(t, s.MaybeRefresh(context.Background()))
	synced := s.LastSync()

	src.set(9999, errors.New("connection refused"))
	clk.t = clk.t.Add(2 * time.Minute)

	assert.False(t, s.MaybeRefresh(context.Background()))
	assert.Equal(t, int64(-300), s.Offset())
	assert.Equal(t, synced, s.LastSync())
	assert.True(t, s.Due(), "failed refresh should be retried next cycle")

	stats := s.GetStats()
	assert.Equal(t, uint64(2), stats["total_syncs"])
	assert.Equal(t, uint64(1), stats["failed_syncs"])
}

func TestSync_NowAppliesOffset(t *testing.T) {
	src := &fakeSource{offset: 250}
	s, clk := newTestSync(src, time.Minute)

	local := float64(clk.t.UnixMilli())
	assert.InDelta(t, local, s.Now(), 0.001)

	require.NoError(t, s.Refresh(context.Background()))
	assert.InDelta(t, local+250, s.Now(), 0.001)
}
