package executor

import (
	"bytes"
	"sync"
)

// outputBuffer accumulates one output stream. A non-zero limit makes it
// the buffer-ceiling enforcement point: the write that pushes accumulated
// length past the limit truncates the buffer, discards further input, and
// fires onOverflow exactly once. An optional tap receives a copy of every
// accepted chunk for streaming delivery.
type outputBuffer struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	limit      int
	overflowed bool
	onOverflow func()
	tap        func([]byte)
}

// Write implements io.Writer. It never returns an error: stopping the
// pipe copy early is the overflow path's job, via process termination.
func (b *outputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	if b.overflowed {
		b.mu.Unlock()
		return len(p), nil
	}

	b.buf.Write(p)
	if b.tap != nil {
		chunk := make([]byte, len(p))
		copy(chunk, p)
		b.tap(chunk)
	}

	tripped := b.limit > 0 && b.buf.Len() > b.limit
	if tripped {
		b.overflowed = true
		b.buf.Truncate(b.limit)
	}
	b.mu.Unlock()

	if tripped && b.onOverflow != nil {
		b.onOverflow()
	}
	return len(p), nil
}

// String returns the accumulated output.
func (b *outputBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Overflowed reports whether the limit was breached.
func (b *outputBuffer) Overflowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overflowed
}
