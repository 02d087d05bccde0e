// Package gpio provides digital input and output lines with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Input reads the raw level of a single line.
type Input interface {
	// Read returns true when the line is high.
	Read() (bool, error)
}

// Output drives a single line.
type Output interface {
	// Write drives the line high (true) or low (false).
	Write(high bool) error
}

// Lines hands out lines by offset on one chip. Each offset may be requested once.
type Lines interface {
	Input(offset int) (Input, error)
	Output(offset int, initial bool) (Output, error)
	Close() error
}

// DefaultChip is the chip used when none is configured.
const DefaultChip = "gpiochip0"
