// FILE: logship/src/internal/buffer/buffer_test.go
package buffer

import (
	"fmt"
	"sync"
	"testing"

	"logship/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(text string) core.LogEntry {
	return core.LogEntry{Text: text, Severity: core.SeverityInfo, Category: "test"}
}

func TestBuffer_Append(t *testing.T) {
	t.Run("CountsUnderCapacity", func(t *testing.T) {
		b := New(1000)
		for i := 0; i < 9; i++ {
			assert.True(t, b.Append(entry(fmt.Sprintf("line %d", i)), 100))
		}
		assert.Equal(t, 9, b.Size())
		assert.Equal(t, int64(900), b.ByteSize())
		assert.Equal(t, uint64(9), b.Accepted())
	})

	t.Run("DropsEntryThatWouldOverflow", func(t *testing.T) {
		b := New(1000)
		for i := 0; i < 5; i++ {
			require.True(t, b.Append(entry("small"), 100))
		}
		require.Equal(t, 5, b.Size())

		assert.False(t, b.Append(entry("large"), 600))
		assert.Equal(t, 5, b.Size())
		assert.Equal(t, int64(500), b.ByteSize())
		assert.Equal(t, uint64(1), b.Dropped())
	})

	t.Run("FullBufferIgnoresAppends", func(t *testing.T) {
		b := New(300)
		for i := 0; i < 3; i++ {
			require.True(t, b.Append(entry("x"), 100))
		}
		require.Equal(t, int64(300), b.ByteSize())

		for i := 0; i < 10; i++ {
			assert.False(t, b.Append(entry("y"), 1))
			assert.False(t, b.Append(entry("z"), 0))
		}
		assert.Equal(t, 3, b.Size())
		assert.Equal(t, int64(300), b.ByteSize())
		assert.Equal(t, uint64(20), b.Dropped())
	})
}

func TestBuffer_DrainChunk(t *testing.T) {
	t.Run("RemovesHeadInOrder", func(t *testing.T) {
		b := New(10000)
		for i := 0; i < 5; i++ {
			b.Append(entry(fmt.Sprintf("line %d", i)), int64(10*(i+1)))
		}

		chunk := b.DrainChunk(2)
		require.Len(t, chunk, 2)
		assert.Equal(t, "line 0", chunk[0].Text)
		assert.Equal(t, "line 1", chunk[1].Text)
		assert.Equal(t, 3, b.Size())
		assert.Equal(t, int64(30+40+50), b.ByteSize())

		chunk = b.DrainChunk(1)
		require.Len(t, chunk, 1)
		assert.Equal(t, "line 2", chunk[0].Text)
	})

	t.Run("CountBeyondLength", func(t *testing.T) {
		b := New(10000)
		for i := 0; i < 3; i++ {
			b.Append(entry("x"), 10)
		}

		chunk := b.DrainChunk(50)
		assert.Len(t, chunk, 3)
		assert.Equal(t, 0, b.Size())
		assert.Equal(t, int64(0), b.ByteSize())
	})

	t.Run("NonPositiveCount", func(t *testing.T) {
		b := New(10000)
		b.Append(entry("x"), 10)

		assert.Nil(t, b.DrainChunk(0))
		assert.Nil(t, b.DrainChunk(-1))
		assert.Equal(t, 1, b.Size())
	})

	t.Run("FreedCapacityIsReusable", func(t *testing.T) {
		b := New(200)
		require.True(t, b.Append(entry("a"), 100))
		require.True(t, b.Append(entry("b"), 100))
		require.False(t, b.Append(entry("c"), 100))

		b.DrainChunk(1)
		assert.True(t, b.Append(entry("c"), 100))
		assert.Equal(t, int64(200), b.ByteSize())
	})
}

func TestBuffer_JoinedSize(t *testing.T) {
	b := New(10000)
	assert.Equal(t, int64(0), b.JoinedSize(3))

	for i := 0; i < 5; i++ {
		b.Append(entry("x"), 100)
	}

	assert.Equal(t, int64(0), b.JoinedSize(0))
	assert.Equal(t, int64(102), b.JoinedSize(1))
	assert.Equal(t, int64(203), b.JoinedSize(2))
	assert.Equal(t, int64(506), b.JoinedSize(5))
	assert.Equal(t, int64(506), b.JoinedSize(9))
}

func TestBuffer_ConcurrentAppendAndDrain(t *testing.T) {
	b := New(1 << 30)

	const producers = 8
	const perProducer = 500

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				b.Append(entry(fmt.Sprintf("p%d-%d", id, i)), 10)
			}
		}(p)
	}

	seen := make(map[string]int)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	drain := func() {
		for _, e := range b.DrainChunk(37) {
			seen[e.Text]++
		}
	}

	for {
		select {
		case <-done:
			for b.Size() > 0 {
				drain()
			}
			assert.Len(t, seen, producers*perProducer)
			for text, count := range seen {
				assert.Equal(t, 1, count, "entry %s delivered more than once", text)
			}
			assert.Equal(t, int64(0), b.ByteSize())
			return
		default:
			drain()
		}
	}
}
