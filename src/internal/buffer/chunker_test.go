// FILE: logship/src/internal/buffer/chunker_test.go
package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fill(sizes ...int64) *Buffer {
	b := New(1 << 30)
	for _, size := range sizes {
		b.Append(entry("x"), size)
	}
	return b
}

func TestSelectChunkSize(t *testing.T) {
	testCases := []struct {
		name     string
		sizes    []int64
		max      int64
		expected int
	}{
		{
			name:     "Empty",
			sizes:    nil,
			max:      300,
			expected: 0,
		},
		{
			name:     "AllFit",
			sizes:    []int64{100, 100},
			max:      300,
			expected: 2,
		},
		{
			// 5 -> 2 by halving; 3 would also fit but is never tried
			name:     "HalvingUnderPacks",
			sizes:    []int64{100, 100, 100, 100, 100},
			max:      300,
			expected: 2,
		},
		{
			name:     "RepeatedHalving",
			sizes:    []int64{100, 100, 100, 100, 100, 100, 100, 100},
			max:      250,
			expected: 2,
		},
		{
			name:     "OversizedFirstEntry",
			sizes:    []int64{1000, 10, 10},
			max:      300,
			expected: 1,
		},
		{
			name:     "SingleOversizedEntry",
			sizes:    []int64{5000},
			max:      300,
			expected: 1,
		},
		{
			name:     "ExactBoundary",
			sizes:    []int64{149, 149},
			max:      301,
			expected: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := fill(tc.sizes...)
			assert.Equal(t, tc.expected, SelectChunkSize(b, tc.max))
		})
	}
}

func TestSelectChunkSize_PrefixFitsUnlessFirstOversized(t *testing.T) {
	sizes := []int64{40, 70, 10, 300, 25, 90, 15, 60, 5, 80, 120, 33}
	for _, max := range []int64{50, 120, 200, 400, 800, 2000} {
		b := fill(sizes...)
		n := SelectChunkSize(b, max)

		assert.Greater(t, n, 0)
		if b.JoinedSize(1) <= max {
			assert.LessOrEqual(t, b.JoinedSize(n), max, "max=%d n=%d", max, n)
		} else {
			assert.Equal(t, 1, n)
		}
	}
}
