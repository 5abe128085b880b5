package audio

import "sync"

// DefaultRingCapacity is the default number of int16 slots of a RingBuffer.
const DefaultRingCapacity = 16384

// A RingBuffer is a fixed-size FIFO of interleaved samples, written by the
// emulation goroutine and read by the audio device. One slot is always kept
// free to tell a full buffer from an empty one, so it holds at most
// capacity-1 samples.
type RingBuffer struct {
	mu   sync.Mutex
	buf  []int16
	r, w int
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 2 {
		capacity = 2
	}
	return &RingBuffer{buf: make([]int16, capacity)}
}

// Cap returns the maximum number of samples the buffer can hold.
func (rb *RingBuffer) Cap() int { return len(rb.buf) - 1 }

// Len returns the number of buffered samples.
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.len()
}

func (rb *RingBuffer) len() int {
	n := rb.w - rb.r
	if n < 0 {
		n += len(rb.buf)
	}
	return n
}

// Write appends as many samples as fit and returns that number. Samples that
// don't fit are dropped.
func (rb *RingBuffer) Write(samples []int16) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	free := len(rb.buf) - 1 - rb.len()
	n := min(free, len(samples))
	for i := 0; i < n; {
		end := len(rb.buf)
		if rb.r > rb.w {
			end = rb.r
		}
		c := copy(rb.buf[rb.w:end], samples[i:n])
		i += c
		rb.w = (rb.w + c) % len(rb.buf)
	}
	return n
}

// Read fills out with buffered samples, and with silence past them. It
// returns the number of samples actually read from the buffer.
func (rb *RingBuffer) Read(out []int16) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := min(rb.len(), len(out))
	for i := 0; i < n; {
		end := len(rb.buf)
		if rb.w > rb.r {
			end = rb.w
		}
		c := copy(out[i:n], rb.buf[rb.r:end])
		i += c
		rb.r = (rb.r + c) % len(rb.buf)
	}
	clear(out[n:])
	return n
}

// Reset discards all buffered samples.
func (rb *RingBuffer) Reset() {
	rb.mu.Lock()
	rb.r, rb.w = 0, 0
	rb.mu.Unlock()
}
