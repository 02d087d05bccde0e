package gpio

import (
	"errors"
	"fmt"
)

// FakeInput is a test double that returns scripted levels.
type FakeInput struct {
	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample; the last one repeats.
	Samples []bool

	// index tracks current position in Samples
	index int

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeInput creates a FakeInput with the given samples.
func NewFakeInput(samples ...bool) *FakeInput {
	return &FakeInput{Samples: samples}
}

// Read returns the next scripted level.
func (f *FakeInput) Read() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	level := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return level, nil
}

// Set replaces the script with a single repeating level.
func (f *FakeInput) Set(level bool) {
	f.Samples = []bool{level}
	f.index = 0
}

// FakeOutput records every write for test assertions.
type FakeOutput struct {
	// Writes contains every level written, in order.
	Writes []bool

	// WriteError, if set, will be returned by Write().
	WriteError error
}

// NewFakeOutput creates an empty FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Write records the level.
func (f *FakeOutput) Write(high bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, high)
	return nil
}

// Level returns the last written level and whether anything was written.
func (f *FakeOutput) Level() (bool, bool) {
	if len(f.Writes) == 0 {
		return false, false
	}
	return f.Writes[len(f.Writes)-1], true
}

// Reset clears recorded writes.
func (f *FakeOutput) Reset() {
	f.Writes = nil
	f.WriteError = nil
}

// FakeLines hands out fake lines and keeps them addressable by offset.
type FakeLines struct {
	Inputs  map[int]*FakeInput
	Outputs map[int]*FakeOutput
	Closed  bool
}

// NewFakeLines creates an empty FakeLines.
func NewFakeLines() *FakeLines {
	return &FakeLines{
		Inputs:  make(map[int]*FakeInput),
		Outputs: make(map[int]*FakeOutput),
	}
}

// Input returns a FakeInput idling high (pull-up, nothing detected).
func (f *FakeLines) Input(offset int) (Input, error) {
	if _, ok := f.Inputs[offset]; ok {
		return nil, fmt.Errorf("line %d already requested", offset)
	}
	if _, ok := f.Outputs[offset]; ok {
		return nil, fmt.Errorf("line %d already requested", offset)
	}
	in := NewFakeInput(true)
	f.Inputs[offset] = in
	return in, nil
}

// Output returns a FakeOutput. The initial level is not recorded as a write.
func (f *FakeLines) Output(offset int, initial bool) (Output, error) {
	if _, ok := f.Inputs[offset]; ok {
		return nil, fmt.Errorf("line %d already requested", offset)
	}
	if _, ok := f.Outputs[offset]; ok {
		return nil, fmt.Errorf("line %d already requested", offset)
	}
	out := NewFakeOutput()
	f.Outputs[offset] = out
	return out, nil
}

// Close marks the lines as closed.
func (f *FakeLines) Close() error {
	f.Closed = true
	return nil
}
