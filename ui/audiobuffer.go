package ui

import (
	"io"
	"sync"
)

// AudioRingBuffer queues interleaved stereo int16 samples between the
// emulation goroutine and oto. It is read as little-endian bytes. Overruns
// drop the oldest whole stereo frames so the channels never swap.
type AudioRingBuffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []int16
	head   int // next sample to read
	count  int // samples queued
	closed bool
}

// NewAudioRingBuffer creates a buffer holding up to capacity bytes of
// audio. The capacity is rounded down to whole stereo frames.
func NewAudioRingBuffer(capacity int) *AudioRingBuffer {
	rb := &AudioRingBuffer{buf: make([]int16, capacity/4*2)}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write queues samples and returns how many samples had to be dropped.
// A trailing odd sample is ignored.
func (rb *AudioRingBuffer) Write(samples []int16) int {
	samples = samples[:len(samples)&^1]
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.closed || len(samples) == 0 {
		return 0
	}

	size := len(rb.buf)
	dropped := 0
	if len(samples) > size {
		dropped = len(samples) - size
		samples = samples[dropped:]
	}
	if over := rb.count + len(samples) - size; over > 0 {
		rb.head = (rb.head + over) % size
		rb.count -= over
		dropped += over
	}

	tail := (rb.head + rb.count) % size
	n := copy(rb.buf[tail:], samples)
	copy(rb.buf, samples[n:])
	rb.count += len(samples)

	rb.cond.Signal()
	return dropped
}

// Read implements io.Reader for oto. It blocks until audio is queued and
// returns io.EOF once the buffer is closed and drained.
func (rb *AudioRingBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.count == 0 {
		if rb.closed {
			return 0, io.EOF
		}
		rb.cond.Wait()
	}

	n := min(len(p)/2, rb.count)
	for i := 0; i < n; i++ {
		s := rb.buf[rb.head]
		p[2*i] = byte(s)
		p[2*i+1] = byte(s >> 8)
		rb.head++
		if rb.head == len(rb.buf) {
			rb.head = 0
		}
	}
	rb.count -= n
	return 2 * n, nil
}

// Buffered returns the queued audio in bytes.
func (rb *AudioRingBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return 2 * rb.count
}

// Clear discards all queued audio.
func (rb *AudioRingBuffer) Clear() {
	rb.mu.Lock()
	rb.head, rb.count = 0, 0
	rb.mu.Unlock()
}

// Close wakes any blocked reader. Reads drain what is left and then
// return io.EOF.
func (rb *AudioRingBuffer) Close() {
	rb.mu.Lock()
	rb.closed = true
	rb.cond.Broadcast()
	rb.mu.Unlock()
}
