// FILE: logship/src/internal/buffer/buffer.go
package buffer

import (
	"sync"
	"sync/atomic"

	"logship/src/internal/core"
)

type item struct {
	entry core.LogEntry
	size  int64
}

// Buffer is a FIFO of pending entries bounded by their total serialized size.
// Safe for concurrent use by many producers and a single drainer.
type Buffer struct {
	mu       sync.Mutex
	items    []item
	byteSize int64
	capacity int64

	// Statistics
	accepted atomic.Uint64
	dropped  atomic.Uint64
}

// New creates a buffer holding at most capacityBytes of serialized entries.
func New(capacityBytes int64) *Buffer {
	return &Buffer{
		capacity: capacityBytes,
	}
}

// Append queues entry whose serialized size is size.
// The entry is dropped when it would push the buffer past its capacity.
func (b *Buffer) Append(entry core.LogEntry, size int64) bool {
	b.mu.Lock()
	if b.byteSize >= b.capacity || b.byteSize+size > b.capacity {
		b.mu.Unlock()
		b.dropped.Add(1)
		return false
	}
	b.items = append(b.items, item{entry: entry, size: size})
	b.byteSize += size
	b.mu.Unlock()

	b.accepted.Add(1)
	return true
}

// DrainChunk removes and returns up to count entries from the head.
func (b *Buffer) DrainChunk(count int) []core.LogEntry {
	if count <= 0 {
		return nil
	}

	b.mu.Lock()
	if count > len(b.items) {
		count = len(b.items)
	}

	chunk := make([]core.LogEntry, count)
	var removed int64
	for i := 0; i < count; i++ {
		chunk[i] = b.items[i].entry
		removed += b.items[i].size
	}

	// Zero the vacated slots so drained entries can be collected
	clear(b.items[:count])
	b.items = b.items[count:]
	if len(b.items) == 0 {
		b.items = nil
	}

	b.byteSize -= removed
	if b.byteSize < 0 {
		b.byteSize = 0
	}
	b.mu.Unlock()

	return chunk
}

// Size returns the number of queued entries.
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// ByteSize returns the summed serialized size of queued entries.
func (b *Buffer) ByteSize() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.byteSize
}

// Capacity returns the configured byte ceiling.
func (b *Buffer) Capacity() int64 {
	return b.capacity
}

// JoinedSize returns the size of the first n entries serialized together as
// one JSON array, brackets and separators included.
func (b *Buffer) JoinedSize(n int) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > len(b.items) {
		n = len(b.items)
	}
	if n <= 0 {
		return 0
	}

	total := int64(2 + n - 1)
	for i := 0; i < n; i++ {
		total += b.items[i].size
	}
	return total
}

// Dropped returns how many entries were rejected for lack of capacity.
func (b *Buffer) Dropped() uint64 {
	return b.dropped.Load()
}

// Accepted returns how many entries were queued since creation.
func (b *Buffer) Accepted() uint64 {
	return b.accepted.Load()
}

// GetStats returns buffer statistics.
func (b *Buffer) GetStats() map[string]any {
	b.mu.Lock()
	size, byteSize := len(b.items), b.byteSize
	b.mu.Unlock()

	return map[string]any{
		"entries":        size,
		"byte_size":      byteSize,
		"capacity_bytes": b.capacity,
		"total_accepted": b.accepted.Load(),
		"total_dropped":  b.dropped.Load(),
	}
}
