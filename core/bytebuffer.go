package core

// ByteBuffer is a bounded ring of decoded bytes. Both producer (the timing
// decoder) and consumer (the reader API) run in foreground context, so
// plain index arithmetic suffices; no atomics.
type ByteBuffer struct {
	buf     []byte
	in, out int
}

// NewByteBuffer returns a byte ring holding up to size-1 bytes.
func NewByteBuffer(size int) *ByteBuffer {
	if size < 2 {
		size = 2
	}
	return &ByteBuffer{buf: make([]byte, size)}
}

// Put appends one byte. Returns false if the ring is full; the caller
// records the loss as an overflow condition.
func (b *ByteBuffer) Put(v byte) bool {
	next := (b.in + 1) % len(b.buf)
	if next == b.out {
		return false
	}
	b.buf[b.in] = v
	b.in = next
	return true
}

// Get removes and returns the oldest byte.
func (b *ByteBuffer) Get() (byte, bool) {
	if b.in == b.out {
		return 0, false
	}
	v := b.buf[b.out]
	b.out = (b.out + 1) % len(b.buf)
	return v, true
}

// Peek returns the oldest byte without consuming it.
func (b *ByteBuffer) Peek() (byte, bool) {
	if b.in == b.out {
		return 0, false
	}
	return b.buf[b.out], true
}

// Len returns the number of buffered bytes.
func (b *ByteBuffer) Len() int {
	n := b.in - b.out
	if n < 0 {
		n += len(b.buf)
	}
	return n
}

// Reset discards all buffered bytes.
func (b *ByteBuffer) Reset() {
	b.in, b.out = 0, 0
}
