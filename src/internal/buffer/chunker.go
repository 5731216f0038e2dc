// FILE: logship/src/internal/buffer/chunker.go
package buffer

// Prefix exposes what the chunker needs to size the next chunk.
type Prefix interface {
	Size() int
	JoinedSize(n int) int64
}

// SelectChunkSize returns how many head entries to drain so the chunk stays
// within maxChunkBytes. The count is halved until it fits; a single entry
// larger than the limit is still returned on its own so the buffer cannot
// stall. Returns 0 when there is nothing to send.
func SelectChunkSize(p Prefix, maxChunkBytes int64) int {
	n := p.Size()
	if n == 0 {
		return 0
	}

	for n > 0 && p.JoinedSize(n) > maxChunkBytes {
		n /= 2
	}

	if n == 0 {
		return 1
	}
	return n
}
