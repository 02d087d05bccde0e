// Package logic contains the control core of the intersection.
// This package has NO hardware or OS dependencies: lines, the servo bus and
// time are injected, and every failure surfaces as a Fault panic.
package logic

import "fmt"

// Direction is the position a servo steers vehicles to.
type Direction uint8

const (
	Right Direction = iota
	Left
)

func (d Direction) String() string {
	switch d {
	case Right:
		return "RIGHT"
	case Left:
		return "LEFT"
	default:
		return fmt.Sprintf("Direction(%d)", d)
	}
}

// Signal is the aspect shown by a traffic light.
type Signal uint8

const (
	Off Signal = iota
	Green
	Yellow
	Red
	RedYellow
)

func (s Signal) String() string {
	switch s {
	case Off:
		return "OFF"
	case Green:
		return "GREEN"
	case Yellow:
		return "YELLOW"
	case Red:
		return "RED"
	case RedYellow:
		return "RED_YELLOW"
	default:
		return fmt.Sprintf("Signal(%d)", s)
	}
}

// Action is what one arm does during a phase. Direction only matters for Green.
type Action struct {
	Signal    Signal
	Direction Direction
}

// GreenTo returns a Green action steering vehicles to d.
func GreenTo(d Direction) Action {
	return Action{Signal: Green, Direction: d}
}

// Actions without a direction.
var (
	ActionOff       = Action{Signal: Off}
	ActionYellow    = Action{Signal: Yellow}
	ActionRed       = Action{Signal: Red}
	ActionRedYellow = Action{Signal: RedYellow}
)

func (a Action) String() string {
	if a.Signal == Green {
		return "GREEN_" + a.Direction.String()
	}
	return a.Signal.String()
}

// EventKind identifies a diagnostic event.
type EventKind string

const (
	EventSensorTriggered EventKind = "SENSOR_TRIGGERED"
	EventSectionEntry    EventKind = "SECTION_ENTRY"
	EventSectionExit     EventKind = "SECTION_EXIT"
	EventStopperBlocked  EventKind = "STOPPER_BLOCKED"
	EventStopperCleared  EventKind = "STOPPER_CLEARED"
	EventPhaseChanged    EventKind = "PHASE_CHANGED"
)

// Event is a diagnostic record emitted by the core.
type Event struct {
	Kind EventKind
	// Source is the sensor, section or stopper id, or the phase index.
	Source uint8
	// Value carries the section lock count for section events.
	Value int
}

// Observer receives diagnostic events. Observers must not call back into
// the entity that emitted the event.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }
