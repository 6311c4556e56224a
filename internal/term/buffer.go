package term

import (
	"strings"
	"sync"
)

// Buffer size limits. Once the contents pass the high-water mark the buffer
// collapses to its trailing truncateTarget bytes, dropping the oldest output.
const (
	maxBufferSize  = 50000
	truncateTarget = 30000
)

// Buffer is the bounded accumulator for scrubbed terminal output. It is
// appended to by the connection's read pump and reset at the start of every
// dispatched command, so between resets it holds one command's response
// window.
type Buffer struct {
	mu    sync.Mutex
	max   int
	trunc int
	data  []byte
}

// NewBuffer returns a buffer with the default size limits.
func NewBuffer() *Buffer {
	return &Buffer{max: maxBufferSize, trunc: truncateTarget}
}

// newBufferWithLimits is used by tests to exercise truncation cheaply.
func newBufferWithLimits(max, trunc int) *Buffer {
	return &Buffer{max: max, trunc: trunc}
}

// Append concatenates chunk, collapsing to the trailing truncate target if
// the high-water mark is exceeded. It always succeeds.
func (b *Buffer) Append(chunk string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append(b.data, chunk...)
	if len(b.data) > b.max {
		tail := b.data[len(b.data)-b.trunc:]
		b.data = append(b.data[:0:0], tail...)
	}
}

// Reset clears the buffer.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.data = nil
	b.mu.Unlock()
}

// Len reports the current buffer length in bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Snapshot returns the current contents verbatim without consuming them.
func (b *Buffer) Snapshot() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.data)
}

// Tail returns the trailing maxLines lines of the buffer, rejoined with
// newlines. A non-positive maxLines returns the full snapshot.
func (b *Buffer) Tail(maxLines int) string {
	s := b.Snapshot()
	if maxLines <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= maxLines {
		return s
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}
