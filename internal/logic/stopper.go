package logic

import (
	"github.com/sweeney/intersection-control/internal/gpio"
)

// StopperActiveLevel is the line level that raises the gate.
const StopperActiveLevel = false

// Stopper is a gate held by two independent sources: a count of section
// locks and a single intersection override. It blocks while either holds.
type Stopper struct {
	id           uint8
	pin          gpio.Output
	sectionLocks uint
	override     bool
	written      bool // effective state last written to the pin
	net          *Network
	guard        guard
}

// NewStopper creates a clear stopper and writes that state to the pin once.
func NewStopper(id uint8, pin gpio.Output) *Stopper {
	if pin == nil {
		configFault("stopper %d: no output line", id)
	}
	s := &Stopper{id: id, pin: pin}
	s.writePin()
	return s
}

// ID returns the stopper id.
func (s *Stopper) ID() uint8 { return s.id }

// Blocking reports the effective state: section locked or overridden.
func (s *Stopper) Blocking() bool {
	return s.sectionLocks > 0 || s.override
}

// SectionLocks returns the number of outstanding section locks.
func (s *Stopper) SectionLocks() uint { return s.sectionLocks }

// Override reports whether the intersection override is set.
func (s *Stopper) Override() bool { return s.override }

// Lock adds a section lock.
func (s *Stopper) Lock() {
	defer s.guard.enter("stopper lock")()
	s.sectionLocks++
	s.sync()
}

// Release removes a section lock. The count never goes below zero.
func (s *Stopper) Release() {
	defer s.guard.enter("stopper release")()
	if s.sectionLocks > 0 {
		s.sectionLocks--
	}
	s.sync()
}

// IntersectionLock sets the override.
func (s *Stopper) IntersectionLock() {
	defer s.guard.enter("stopper intersection lock")()
	s.override = true
	s.sync()
}

// IntersectionRelease clears the override.
func (s *Stopper) IntersectionRelease() {
	defer s.guard.enter("stopper intersection release")()
	s.override = false
	s.sync()
}

// sync writes the pin only when the effective state changed.
func (s *Stopper) sync() {
	if s.Blocking() == s.written {
		return
	}
	s.writePin()

	kind := EventStopperCleared
	if s.written {
		kind = EventStopperBlocked
	}
	s.net.notify(Event{Kind: kind, Source: s.id, Value: int(s.sectionLocks)})
}

func (s *Stopper) writePin() {
	blocking := s.Blocking()
	level := !StopperActiveLevel
	if blocking {
		level = StopperActiveLevel
	}
	if err := s.pin.Write(level); err != nil {
		ioFault("write stopper pin", err)
	}
	s.written = blocking
}
