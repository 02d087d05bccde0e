// Package clock provides the free-running tick counter that every poller in the
// control loop reads. The counter is advanced from a single "interrupt" source
// and read everywhere else; both sides go through the same critical section.
package clock

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/constraints"
)

// Ticks is a wrapping 32-bit timestamp. Differences between two Ticks are only
// meaningful through Elapsed.
type Ticks uint32

// Default timer configuration: one tick every 100µs.
const (
	DefaultPeriod    = 100 * time.Microsecond
	DefaultIncrement = 100 // µs added per tick
)

// Config describes the periodic timer feeding the clock.
type Config struct {
	// Increment is the number of microseconds added per Tick.
	Increment uint64
}

// Clock is a monotonically increasing microsecond counter.
type Clock struct {
	mu        sync.Mutex // the critical section; held for every access
	counter   uint64
	increment uint64
	disabled  bool
}

// New creates a Clock with the counter reset to zero.
func New(cfg Config) *Clock {
	if cfg.Increment == 0 {
		cfg.Increment = DefaultIncrement
	}
	c := &Clock{increment: cfg.Increment}
	c.Init()
	return c
}

// Init resets the counter and re-enables ticking.
func (c *Clock) Init() {
	c.free(func() {
		c.counter = 0
		c.disabled = false
	})
}

// free runs fn with the "interrupt" masked.
func (c *Clock) free(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// Tick is the timer interrupt handler.
func (c *Clock) Tick() {
	c.free(func() {
		if c.disabled {
			return
		}
		c.counter += c.increment
	})
}

// Disable stops further ticks from advancing the counter.
func (c *Clock) Disable() {
	c.free(func() { c.disabled = true })
}

// Now returns the full counter value in microseconds.
func (c *Clock) Now() uint64 {
	var v uint64
	c.free(func() { v = c.counter })
	return v
}

// Micros returns the counter as wrapping microseconds.
func (c *Clock) Micros() Ticks {
	return Ticks(c.Now())
}

// Millis returns the counter as wrapping milliseconds.
func (c *Clock) Millis() Ticks {
	return Ticks(c.Now() / 1000)
}

// Run calls Tick every period until ctx is done. It stands in for the
// hardware compare-match interrupt on a host build.
func (c *Clock) Run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Elapsed returns now-last under modular arithmetic. It stays correct
// across a single wraparound of the counter.
func Elapsed[T constraints.Unsigned](now, last T) T {
	return now - last
}

// Due reports whether strictly more than interval has passed since last.
// Never rewrite this as last+interval < now: that form breaks on wraparound.
func Due[T constraints.Unsigned](now, last, interval T) bool {
	return Elapsed(now, last) > interval
}
