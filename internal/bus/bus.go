// Package bus provides the addressed bus used to command servos.
// Everything speaks tinygo.org/x/drivers.I2C so the same servo code runs
// against a periph.io bus on a host or a fake in tests.
package bus

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

// Compile-time check.
var _ drivers.I2C = (*Bus)(nil)

// Bus is an opened I2C bus.
type Bus struct {
	b i2c.BusCloser
}

// Open initialises the host drivers and opens the named I2C bus.
// An empty name selects the first bus available.
func Open(name string) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return &Bus{b: b}, nil
}

// Tx writes w and then reads into r at the 7-bit address addr.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	return b.b.Tx(addr, w, r)
}

// Close releases the bus.
func (b *Bus) Close() error {
	return b.b.Close()
}
