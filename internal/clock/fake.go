package clock

// Fake is a hand-driven time source for tests.
type Fake struct {
	Us uint64
}

// NewFake creates a Fake starting at the given microsecond count.
func NewFake(us uint64) *Fake {
	return &Fake{Us: us}
}

// Micros returns the fake time as wrapping microseconds.
func (f *Fake) Micros() Ticks { return Ticks(f.Us) }

// Millis returns the fake time as wrapping milliseconds.
func (f *Fake) Millis() Ticks { return Ticks(f.Us / 1000) }

// Advance moves the fake time forward by us microseconds.
func (f *Fake) Advance(us uint64) { f.Us += us }

// SetMillis jumps to the given millisecond value.
func (f *Fake) SetMillis(ms uint64) { f.Us = ms * 1000 }
