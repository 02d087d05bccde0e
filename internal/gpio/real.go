//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "intersection-control"

// Chip hands out lines from a Linux GPIO character device.
type Chip struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
}

// OpenChip opens the named chip, e.g. "gpiochip0".
func OpenChip(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &Chip{chip: chip}, nil
}

// Input requests a line as input with pull-up. Sensors pull the line low
// when they detect a vehicle.
func (c *Chip) Input(offset int) (Input, error) {
	line, err := c.chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request input line %d: %w", offset, err)
	}
	c.lines = append(c.lines, line)
	return &inputLine{line: line}, nil
}

// Output requests a line as output driven to the initial level.
func (c *Chip) Output(offset int, initial bool) (Output, error) {
	line, err := c.chip.RequestLine(offset, gpiocdev.AsOutput(level(initial)))
	if err != nil {
		return nil, fmt.Errorf("request output line %d: %w", offset, err)
	}
	c.lines = append(c.lines, line)
	return &outputLine{line: line}, nil
}

// Close releases every requested line and the chip.
// Lines are reconfigured as inputs with pull-up first, so stoppers and lights
// are not left energised after exit.
func (c *Chip) Close() error {
	var errs []error
	for _, line := range c.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line %d: %w", line.Offset(), err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", line.Offset(), err))
		}
	}
	c.lines = nil
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

type inputLine struct {
	line *gpiocdev.Line
}

func (l *inputLine) Read() (bool, error) {
	v, err := l.line.Value()
	if err != nil {
		return false, fmt.Errorf("read line %d: %w", l.line.Offset(), err)
	}
	return v != 0, nil
}

type outputLine struct {
	line *gpiocdev.Line
}

func (l *outputLine) Write(high bool) error {
	if err := l.line.SetValue(level(high)); err != nil {
		return fmt.Errorf("write line %d: %w", l.line.Offset(), err)
	}
	return nil
}

func level(high bool) int {
	if high {
		return 1
	}
	return 0
}
