package mqtt

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sweeney/intersection-control/internal/logic"
)

// DefaultSinkCapacity is the number of messages a Sink holds before it
// starts dropping the oldest.
const DefaultSinkCapacity = 256

type message struct {
	at     time.Time
	event  logic.Event
	system *SystemEvent
}

// Sink queues messages from the control loop and publishes them from its
// own goroutine. Enqueueing never blocks.
type Sink struct {
	pub Publisher
	now func() time.Time

	mu    sync.Mutex
	queue *ringBuffer[message]

	pubMu  sync.Mutex // serializes drain-and-publish cycles
	wake   chan struct{}
	failed int
}

// NewSink creates a Sink in front of pub.
func NewSink(pub Publisher, capacity int) *Sink {
	return &Sink{
		pub:   pub,
		now:   time.Now,
		queue: newRingBuffer[message](capacity),
		wake:  make(chan struct{}, 1),
	}
}

// Observe stamps and queues a control event. It satisfies logic.Observer.
func (s *Sink) Observe(e logic.Event) {
	s.enqueue(message{at: s.now(), event: e})
}

// System queues a lifecycle event.
func (s *Sink) System(ev SystemEvent) {
	s.enqueue(message{system: &ev})
}

func (s *Sink) enqueue(m message) {
	s.mu.Lock()
	s.queue.push(m)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued messages.
func (s *Sink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}

// Dropped returns the number of messages lost to a full queue.
func (s *Sink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.droppedTotal()
}

// Failed returns the number of messages the publisher rejected.
func (s *Sink) Failed() int {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	return s.failed
}

// Run publishes queued messages until ctx is done, then flushes what is left.
func (s *Sink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.Flush()
			return
		case <-s.wake:
			s.Flush()
		}
	}
}

// Flush publishes everything queued so far, in order.
func (s *Sink) Flush() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	batch := s.queue.drainAll()
	s.mu.Unlock()

	for _, m := range batch {
		var err error
		if m.system != nil {
			err = s.pub.PublishSystem(*m.system)
		} else {
			err = s.pub.Publish(m.at, m.event)
		}
		if err != nil {
			s.failed++
			log.Printf("publish error: %v", err)
			// Don't crash on publish failure
		}
	}
}
