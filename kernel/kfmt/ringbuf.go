package kfmt

import "io"

// ringBufferSize is large enough to hold a full 80x25 text console. It must
// be a power of 2.
const ringBufferSize = 2048

// ringBuffer keeps the most recent ringBufferSize bytes written to it. Older
// bytes are discarded once the buffer is full.
type ringBuffer struct {
	buffer [ringBufferSize]byte

	// head is the index of the oldest buffered byte and size the number
	// of buffered bytes.
	head, size int
}

// Write appends p to the buffer, overwriting the oldest bytes if required. It
// never fails.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[(rb.head+rb.size)&(ringBufferSize-1)] = b
		if rb.size == ringBufferSize {
			rb.head = (rb.head + 1) & (ringBufferSize - 1)
		} else {
			rb.size++
		}
	}

	return len(p), nil
}

// Read drains up to len(p) buffered bytes into p. It returns io.EOF once the
// buffer is empty.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.size == 0 {
		return 0, io.EOF
	}

	// copy the contiguous run that starts at head
	n := ringBufferSize - rb.head
	if n > rb.size {
		n = rb.size
	}
	if n > len(p) {
		n = len(p)
	}

	copy(p, rb.buffer[rb.head:rb.head+n])
	rb.head = (rb.head + n) & (ringBufferSize - 1)
	rb.size -= n

	return n, nil
}
