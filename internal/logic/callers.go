package logic

import "github.com/sweeney/intersection-control/internal/clock"

// ServoFrame is the servo pulse frame period in µs.
const ServoFrame clock.Ticks = 20_000

// SensorCaller polls a fixed set of sensors.
type SensorCaller struct {
	sensors []*Sensor
}

// NewSensorCaller creates a caller for sensors, polled in the given order.
func NewSensorCaller(sensors ...*Sensor) *SensorCaller {
	return &SensorCaller{sensors: sensors}
}

// Call polls every sensor at time now (ms).
func (c *SensorCaller) Call(now clock.Ticks) {
	for _, s := range c.sensors {
		s.Poll(now)
	}
}

// ServoCaller generates software pulses for several servos sharing one
// 20ms frame. It must be called far more often than the pulse resolution.
type ServoCaller struct {
	servos  []*Servo
	elapsed clock.Ticks // since the start of the current frame
	last    clock.Ticks
}

// NewServoCaller creates a caller for the servos that have a pulse line.
func NewServoCaller(servos ...*Servo) *ServoCaller {
	c := &ServoCaller{}
	for _, s := range servos {
		if s.HasPulse() {
			c.servos = append(c.servos, s)
		}
	}
	return c
}

// Len returns the number of servos driven.
func (c *ServoCaller) Len() int { return len(c.servos) }

// Call advances the frame to time now (µs). A new frame starts every servo's
// pulse; within a frame each pulse ends once its own length has elapsed.
func (c *ServoCaller) Call(now clock.Ticks) {
	c.elapsed += clock.Elapsed(now, c.last)
	c.last = now

	if c.elapsed >= ServoFrame {
		c.elapsed = 0
		for _, s := range c.servos {
			s.StartPulse()
		}
		return
	}

	for _, s := range c.servos {
		if s.Pulsing() && c.elapsed >= s.PulseLength() {
			s.EndPulse()
		}
	}
}
