package logic

import "github.com/sweeney/intersection-control/internal/gpio"

// LightActiveLevel is the line level that turns a lamp on.
const LightActiveLevel = true

// LightLevels maps a signal to its (green, yellow, red) lamp states.
func LightLevels(s Signal) (green, yellow, red bool) {
	switch s {
	case Green:
		return true, false, false
	case Yellow:
		return false, true, false
	case Red:
		return false, false, true
	case RedYellow:
		return false, true, true
	default:
		return false, false, false
	}
}

// Light is a three-lamp traffic light.
type Light struct {
	green  gpio.Output
	yellow gpio.Output
	red    gpio.Output
	state  Action
}

// NewLight creates a light and switches it off.
func NewLight(green, yellow, red gpio.Output) *Light {
	if green == nil || yellow == nil || red == nil {
		configFault("light: missing output line")
	}
	l := &Light{green: green, yellow: yellow, red: red}
	l.SetState(ActionOff)
	return l
}

// SetState writes all three lamps for the given action.
func (l *Light) SetState(a Action) {
	g, y, r := LightLevels(a.Signal)

	// All three lines are written before any failure is raised.
	errG := l.green.Write(g == LightActiveLevel)
	errY := l.yellow.Write(y == LightActiveLevel)
	errR := l.red.Write(r == LightActiveLevel)
	for _, err := range []error{errG, errY, errR} {
		if err != nil {
			ioFault("write light pin", err)
		}
	}
	l.state = a
}

// State returns the last action applied.
func (l *Light) State() Action { return l.state }
