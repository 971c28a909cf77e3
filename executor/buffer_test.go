package executor

import (
	"bytes"
	"strings"
	"sync/atomic"
	"testing"
)

func TestOutputBufferAccumulates(t *testing.T) {
	b := &outputBuffer{}

	for _, chunk := range []string{"hello ", "world"} {
		n, err := b.Write([]byte(chunk))
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if n != len(chunk) {
			t.Errorf("Expected n=%d, got %d", len(chunk), n)
		}
	}

	if b.String() != "hello world" {
		t.Errorf("Expected %q, got %q", "hello world", b.String())
	}
	if b.Overflowed() {
		t.Error("Unlimited buffer should never overflow")
	}
}

func TestOutputBufferOverflowTruncatesAtLimit(t *testing.T) {
	var fired atomic.Int32
	b := &outputBuffer{
		limit:      10,
		onOverflow: func() { fired.Add(1) },
	}

	b.Write([]byte(strings.Repeat("a", 8)))
	if b.Overflowed() {
		t.Fatal("Buffer should not overflow below the limit")
	}

	b.Write([]byte(strings.Repeat("b", 8)))
	if !b.Overflowed() {
		t.Fatal("Buffer should overflow past the limit")
	}
	if len(b.String()) != 10 {
		t.Errorf("Overflowed buffer should hold exactly the limit, got %d bytes", len(b.String()))
	}
	if fired.Load() != 1 {
		t.Errorf("onOverflow should fire exactly once, fired %d times", fired.Load())
	}

	// Later writes are discarded and do not refire the callback.
	b.Write([]byte("more"))
	if len(b.String()) != 10 {
		t.Errorf("Post-overflow writes should be discarded, got %d bytes", len(b.String()))
	}
	if fired.Load() != 1 {
		t.Errorf("onOverflow refired, total %d", fired.Load())
	}
}

func TestOutputBufferTapReceivesCopies(t *testing.T) {
	var chunks [][]byte
	b := &outputBuffer{
		tap: func(chunk []byte) { chunks = append(chunks, chunk) },
	}

	data := []byte("chunk")
	b.Write(data)
	data[0] = 'X'

	if len(chunks) != 1 {
		t.Fatalf("Expected one tapped chunk, got %d", len(chunks))
	}
	if !bytes.Equal(chunks[0], []byte("chunk")) {
		t.Errorf("Tap must receive a copy, got %q", chunks[0])
	}
}
