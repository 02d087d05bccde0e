package mqtt

import "log"

// ringBuffer is a fixed-capacity FIFO that drops the oldest item when full.
// Not safe for concurrent use; the caller synchronizes.
type ringBuffer[T any] struct {
	buf      []T
	capacity int
	head     int // next write position
	count    int
	dropped  int
	overflow bool // true if any item was dropped since last drain
}

func newRingBuffer[T any](capacity int) *ringBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer[T]{
		buf:      make([]T, capacity),
		capacity: capacity,
	}
}

func (r *ringBuffer[T]) push(item T) {
	if r.count == r.capacity {
		if !r.overflow {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", r.capacity)
			r.overflow = true
		}
		// Overwrite oldest: head is already pointing at it
		r.buf[r.head] = item
		r.head = (r.head + 1) % r.capacity
		r.dropped++
		return
	}
	r.buf[r.head] = item
	r.head = (r.head + 1) % r.capacity
	r.count++
}

func (r *ringBuffer[T]) drainAll() []T {
	if r.count == 0 {
		return nil
	}

	result := make([]T, r.count)
	// Oldest item is at (head - count) mod capacity
	start := (r.head - r.count + r.capacity) % r.capacity
	var zero T
	for i := 0; i < r.count; i++ {
		idx := (start + i) % r.capacity
		result[i] = r.buf[idx]
		r.buf[idx] = zero
	}

	r.count = 0
	r.head = 0
	r.overflow = false
	return result
}

func (r *ringBuffer[T]) len() int {
	return r.count
}

// droppedTotal returns how many items were overwritten since creation.
func (r *ringBuffer[T]) droppedTotal() int {
	return r.dropped
}
