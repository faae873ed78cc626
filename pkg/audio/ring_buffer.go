package audio

import "sync"

// RingBuffer is a fixed-size circular buffer of PCM bytes.
//
// The capture path keeps a short pre-roll of recent microphone audio in a
// ring buffer so that the first phonemes of an utterance, spoken before the
// engine decided to capture, are not lost.
type RingBuffer struct {
	mu       sync.Mutex
	data     []byte
	capacity int
	writePos int
	size     int
}

// NewRingBuffer creates a ring buffer sized for durationMs of 16-bit mono
// PCM at the given sample rate.
func NewRingBuffer(sampleRate, durationMs int) *RingBuffer {
	capacity := sampleRate * durationMs / 1000 * 2
	return &RingBuffer{
		data:     make([]byte, capacity),
		capacity: capacity,
	}
}

// Write appends data, overwriting the oldest bytes when full.
func (rb *RingBuffer) Write(data []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(data)
	if n == 0 {
		return
	}

	// Oversized writes reduce to the trailing capacity bytes.
	if n >= rb.capacity {
		copy(rb.data, data[n-rb.capacity:])
		rb.writePos = 0
		rb.size = rb.capacity
		return
	}

	tail := rb.capacity - rb.writePos
	if n <= tail {
		copy(rb.data[rb.writePos:], data)
		rb.writePos = (rb.writePos + n) % rb.capacity
	} else {
		copy(rb.data[rb.writePos:], data[:tail])
		copy(rb.data, data[tail:])
		rb.writePos = n - tail
	}

	rb.size += n
	if rb.size > rb.capacity {
		rb.size = rb.capacity
	}
}

// ReadAll returns the buffered bytes in chronological order without
// consuming them.
func (rb *RingBuffer) ReadAll() []byte {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.size == 0 {
		return nil
	}

	out := make([]byte, rb.size)
	if rb.size < rb.capacity {
		copy(out, rb.data[:rb.size])
	} else {
		head := rb.capacity - rb.writePos
		copy(out[:head], rb.data[rb.writePos:])
		copy(out[head:], rb.data[:rb.writePos])
	}
	return out
}

// Clear resets the buffer to empty.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.writePos = 0
	rb.size = 0
}

// Size returns the number of buffered bytes.
func (rb *RingBuffer) Size() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size
}

// Capacity returns the total capacity in bytes.
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}
