package logic

import (
	"golang.org/x/exp/constraints"
	"tinygo.org/x/drivers"

	"github.com/sweeney/intersection-control/internal/clock"
	"github.com/sweeney/intersection-control/internal/gpio"
)

// Servo pulse limits in microseconds.
const (
	MinPulse clock.Ticks = 1000
	MaxPulse clock.Ticks = 2000
	MaxAngle             = 180
)

// ServoConfig describes one steering actuator.
type ServoConfig struct {
	// ID is the channel id sent in every bus command.
	ID uint8
	// Address is the bus address of the servo controller.
	Address uint16
	// RightAngle and LeftAngle are in degrees, 0..180.
	RightAngle uint8
	LeftAngle  uint8
	// Pulse, if set, is driven directly by a ServoCaller.
	Pulse gpio.Output
}

// Servo steers vehicles left or right. Commands go out over the bus,
// fire-and-forget; the pulse line is optional.
type Servo struct {
	cfg     ServoConfig
	bus     drivers.I2C
	angle   uint8
	pulsing bool
	guard   guard
}

// NewServo validates the angles and commands the Right direction.
func NewServo(bus drivers.I2C, cfg ServoConfig) *Servo {
	if !between(cfg.RightAngle, 0, MaxAngle) || !between(cfg.LeftAngle, 0, MaxAngle) {
		configFault("servo %d: angle must be between 0 and %d", cfg.ID, MaxAngle)
	}
	if bus == nil && cfg.Pulse == nil {
		configFault("servo %d: needs a bus or a pulse line", cfg.ID)
	}
	s := &Servo{cfg: cfg, bus: bus}
	s.SetDirection(Right)
	return s
}

// ID returns the servo channel id.
func (s *Servo) ID() uint8 { return s.cfg.ID }

// Angle returns the last commanded angle.
func (s *Servo) Angle() uint8 { return s.angle }

// SetDirection commands the angle for d.
func (s *Servo) SetDirection(d Direction) {
	defer s.guard.enter("servo set direction")()

	angle := s.cfg.RightAngle
	if d == Left {
		angle = s.cfg.LeftAngle
	}
	s.angle = angle

	if s.bus == nil {
		return
	}
	if err := s.bus.Tx(s.cfg.Address, []byte{s.cfg.ID, angle}, nil); err != nil {
		ioFault("send servo direction", err)
	}
}

// HasPulse reports whether the servo has a pulse line.
func (s *Servo) HasPulse() bool { return s.cfg.Pulse != nil }

// Pulsing reports whether the pulse line is currently high.
func (s *Servo) Pulsing() bool { return s.pulsing }

// PulseLength maps the commanded angle onto 1000..2000µs.
func (s *Servo) PulseLength() clock.Ticks {
	return MinPulse + clock.Ticks(s.angle)*(MaxPulse-MinPulse)/MaxAngle
}

// StartPulse drives the pulse line high.
func (s *Servo) StartPulse() {
	s.writePulse(true)
}

// EndPulse drives the pulse line low.
func (s *Servo) EndPulse() {
	s.writePulse(false)
}

func (s *Servo) writePulse(high bool) {
	defer s.guard.enter("servo pulse")()
	if s.cfg.Pulse == nil {
		return
	}
	if err := s.cfg.Pulse.Write(high); err != nil {
		ioFault("write servo pulse", err)
	}
	s.pulsing = high
}

// between reports lo <= v && v <= hi.
func between[T constraints.Integer](v, lo, hi T) bool {
	return v >= lo && v <= hi
}
