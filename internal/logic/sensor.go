package logic

import (
	"github.com/sweeney/intersection-control/internal/clock"
	"github.com/sweeney/intersection-control/internal/gpio"
)

// SensorActiveLevel is the line level while a vehicle is detected.
// Sensors are wired with pull-ups and pull the line low.
const SensorActiveLevel = false

// Refractory is the minimum time between two accepted triggers, in ms.
const Refractory clock.Ticks = 1000

// MaxOwners is the number of entry (and, separately, exit) sections a
// sensor can report to.
const MaxOwners = 2

type ownerSlot struct {
	section SectionID
	ok      bool
}

// Sensor is a debounced presence detector. While the line is active it
// fires at most once per refractory window.
type Sensor struct {
	id          uint8
	pin         gpio.Input
	lastLevel   bool
	lastTrigger clock.Ticks
	triggered   bool // at least one trigger accepted
	entryOwners [MaxOwners]ownerSlot
	exitOwners  [MaxOwners]ownerSlot
	net         *Network
	guard       guard
}

// NewSensor creates a sensor reading pin.
func NewSensor(id uint8, pin gpio.Input) *Sensor {
	if pin == nil {
		configFault("sensor %d: no input line", id)
	}
	return &Sensor{
		id:        id,
		pin:       pin,
		lastLevel: !SensorActiveLevel,
	}
}

// ID returns the sensor id.
func (s *Sensor) ID() uint8 { return s.id }

// LastLevel returns the level seen by the last Poll.
func (s *Sensor) LastLevel() bool { return s.lastLevel }

// LastTrigger returns the time of the last accepted trigger and whether
// there has been one.
func (s *Sensor) LastTrigger() (clock.Ticks, bool) {
	return s.lastTrigger, s.triggered
}

// Poll samples the line at time now (ms). When the line is active and the
// refractory window has passed, every entry owner is notified, then every
// exit owner, in registration order. It reports whether it fired.
func (s *Sensor) Poll(now clock.Ticks) bool {
	defer s.guard.enter("sensor poll")()

	level, err := s.pin.Read()
	if err != nil {
		ioFault("read sensor pin", err)
	}

	fired := false
	if level == SensorActiveLevel && (!s.triggered || clock.Elapsed(now, s.lastTrigger) >= Refractory) {
		s.net.notify(Event{Kind: EventSensorTriggered, Source: s.id})
		for _, o := range s.entryOwners {
			if !o.ok {
				break
			}
			s.net.Section(o.section).OnEntry()
		}
		for _, o := range s.exitOwners {
			if !o.ok {
				break
			}
			s.net.Section(o.section).OnExit()
		}
		s.lastTrigger = now
		s.triggered = true
		fired = true
	}
	s.lastLevel = level
	return fired
}

func (s *Sensor) addEntryOwner(id SectionID) {
	if !fill(&s.entryOwners, id) {
		configFault("sensor %d: no more than %d entry owners possible", s.id, MaxOwners)
	}
}

func (s *Sensor) addExitOwner(id SectionID) {
	if !fill(&s.exitOwners, id) {
		configFault("sensor %d: no more than %d exit owners possible", s.id, MaxOwners)
	}
}

func fill(slots *[MaxOwners]ownerSlot, id SectionID) bool {
	for i := range slots {
		if !slots[i].ok {
			slots[i] = ownerSlot{section: id, ok: true}
			return true
		}
	}
	return false
}
