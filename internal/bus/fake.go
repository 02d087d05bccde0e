package bus

import "tinygo.org/x/drivers"

// Compile-time check.
var _ drivers.I2C = (*FakeBus)(nil)

// Frame is one recorded write.
type Frame struct {
	Addr uint16
	Data []byte
}

// FakeBus records writes for test assertions.
type FakeBus struct {
	// Frames contains every write, in order.
	Frames []Frame

	// TxError, if set, will be returned by Tx.
	TxError error
}

// NewFakeBus creates an empty FakeBus.
func NewFakeBus() *FakeBus {
	return &FakeBus{}
}

// Tx records w. Reads are answered with zeroes.
func (f *FakeBus) Tx(addr uint16, w, r []byte) error {
	if f.TxError != nil {
		return f.TxError
	}
	data := make([]byte, len(w))
	copy(data, w)
	f.Frames = append(f.Frames, Frame{Addr: addr, Data: data})
	for i := range r {
		r[i] = 0
	}
	return nil
}

// Last returns the most recent frame and whether there was one.
func (f *FakeBus) Last() (Frame, bool) {
	if len(f.Frames) == 0 {
		return Frame{}, false
	}
	return f.Frames[len(f.Frames)-1], true
}

// Reset clears recorded frames.
func (f *FakeBus) Reset() {
	f.Frames = nil
	f.TxError = nil
}
