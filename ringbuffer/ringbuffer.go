// Package ringbuffer provides a fixed-capacity circular queue.
//
// A RingBuffer never grows after construction. Push on a full buffer is
// rejected rather than overwriting the oldest item. The buffer is safe for
// exactly one producer and one consumer running concurrently: the producer
// owns the head index, the consumer owns the tail index and the occupied
// count is shared through an atomic counter. Flush is the only operation
// that touches both ends and must not race with either side.
package ringbuffer

import (
	"go.uber.org/atomic"
)

// Newline is the terminator counted by NumBufferedLines.
const Newline byte = '\n'

// RingBuffer is a fixed-capacity FIFO of items of type T.
type RingBuffer[T comparable] struct {
	buf   []T
	head  int // next slot to write, producer side
	tail  int // next slot to read, consumer side
	count atomic.Int32
}

// New returns an empty ring buffer holding at most size items.
// It panics if size is not positive.
func New[T comparable](size int) *RingBuffer[T] {
	if size <= 0 {
		panic("ringbuffer: size must be positive")
	}
	return &RingBuffer[T]{buf: make([]T, size)}
}

// Size returns the fixed capacity of the buffer.
func (rb *RingBuffer[T]) Size() int {
	return len(rb.buf)
}

// BytesAvailable returns the number of occupied slots.
func (rb *RingBuffer[T]) BytesAvailable() int {
	return int(rb.count.Load())
}

// SpaceAvailable returns the number of free slots.
func (rb *RingBuffer[T]) SpaceAvailable() int {
	return len(rb.buf) - int(rb.count.Load())
}

// IsFull reports whether no more items can be pushed.
func (rb *RingBuffer[T]) IsFull() bool {
	return int(rb.count.Load()) == len(rb.buf)
}

// IsEmpty reports whether there is nothing to pull.
func (rb *RingBuffer[T]) IsEmpty() bool {
	return rb.count.Load() == 0
}

// Push appends item. It returns false, leaving the buffer untouched, when
// the buffer is full.
func (rb *RingBuffer[T]) Push(item T) bool {
	if rb.IsFull() {
		return false
	}
	rb.buf[rb.head] = item
	rb.head = rb.next(rb.head)
	rb.count.Inc()
	return true
}

// Pull removes and returns the oldest item. Callers must check IsEmpty or
// BytesAvailable first; pulling from an empty buffer returns the zero value
// and changes nothing.
func (rb *RingBuffer[T]) Pull() T {
	var zero T
	if rb.IsEmpty() {
		return zero
	}
	item := rb.buf[rb.tail]
	rb.buf[rb.tail] = zero
	rb.tail = rb.next(rb.tail)
	rb.count.Dec()
	return item
}

// Front returns the oldest item without removing it.
func (rb *RingBuffer[T]) Front() (T, bool) {
	if rb.IsEmpty() {
		var zero T
		return zero, false
	}
	return rb.buf[rb.tail], true
}

// BulkPush appends as many items as fit and returns how many were stored.
func (rb *RingBuffer[T]) BulkPush(items []T) int {
	n := 0
	for n < len(items) && rb.Push(items[n]) {
		n++
	}
	return n
}

// BulkPull moves up to len(dst) items into dst and returns how many were
// moved.
func (rb *RingBuffer[T]) BulkPull(dst []T) int {
	avail := rb.BytesAvailable()
	if len(dst) < avail {
		avail = len(dst)
	}
	for i := 0; i < avail; i++ {
		dst[i] = rb.Pull()
	}
	return avail
}

// Discard drops up to n of the oldest items and returns how many were
// dropped.
func (rb *RingBuffer[T]) Discard(n int) int {
	avail := rb.BytesAvailable()
	if n > avail {
		n = avail
	}
	for i := 0; i < n; i++ {
		rb.Pull()
	}
	return n
}

// Count returns how many queued items equal item. It only reads slots
// between tail and tail+count, so it is safe on the consumer side.
func (rb *RingBuffer[T]) Count(item T) int {
	n := 0
	avail := rb.BytesAvailable()
	idx := rb.tail
	for i := 0; i < avail; i++ {
		if rb.buf[idx] == item {
			n++
		}
		idx = rb.next(idx)
	}
	return n
}

// Flush drops all content and resets both indices.
func (rb *RingBuffer[T]) Flush() {
	var zero T
	for i := range rb.buf {
		rb.buf[i] = zero
	}
	rb.head = 0
	rb.tail = 0
	rb.count.Store(0)
}

func (rb *RingBuffer[T]) next(idx int) int {
	idx++
	if idx == len(rb.buf) {
		return 0
	}
	return idx
}

// NumBufferedLines returns the number of line terminators currently queued
// in a byte ring, i.e. how many complete lines can be drained.
func NumBufferedLines(rb *RingBuffer[byte]) int {
	return rb.Count(Newline)
}
