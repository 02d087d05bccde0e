// Package topology turns a track description into wired control objects.
package topology

import (
	"fmt"

	"tinygo.org/x/drivers"

	"github.com/sweeney/intersection-control/internal/config"
	"github.com/sweeney/intersection-control/internal/gpio"
	"github.com/sweeney/intersection-control/internal/logic"
)

// Track is everything the main loop drives.
type Track struct {
	Network *logic.Network
	// Intersection is nil for layouts without arms.
	Intersection *logic.Intersection
	Sensors      *logic.SensorCaller
	Servos       *logic.ServoCaller
	LED          gpio.Output
}

// Build requests every line from lines and wires the track. bus may be nil,
// in which case servos are only pulsed. obs is installed before any
// component is created so the first phase change is reported.
//
// Configuration faults raised by the core are returned as errors; lines
// already requested stay with the caller to close.
func Build(cfg *config.Config, lines gpio.Lines, bus drivers.I2C, obs logic.Observer) (t *Track, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(logic.Fault)
			if !ok {
				panic(r)
			}
			t, err = nil, fmt.Errorf("wire layout %q: %w", cfg.Layout, f)
		}
	}()

	b := &builder{
		cfg:      cfg,
		lines:    lines,
		bus:      bus,
		net:      logic.NewNetwork(),
		stoppers: make(map[uint8]*logic.Stopper),
		sensors:  make(map[uint8]logic.SensorID),
	}
	b.net.SetObserver(obs)

	t = &Track{Network: b.net}

	if t.LED, err = lines.Output(cfg.LED, false); err != nil {
		return nil, fmt.Errorf("led: %w", err)
	}
	if err := b.addStoppers(); err != nil {
		return nil, err
	}
	if err := b.addSensors(); err != nil {
		return nil, err
	}
	b.addSections()

	var servos []*logic.Servo
	if cfg.Intersection != nil {
		arms, err := b.arms()
		if err != nil {
			return nil, err
		}
		servos = []*logic.Servo{arms.Left.Servo, arms.Right.Servo, arms.Upper.Servo}
		t.Intersection = logic.NewIntersection(b.net, arms, logic.DefaultPhases)
	}

	t.Sensors = logic.NewSensorCaller(b.net.Sensors()...)
	t.Servos = logic.NewServoCaller(servos...)
	return t, nil
}

type builder struct {
	cfg      *config.Config
	lines    gpio.Lines
	bus      drivers.I2C
	net      *logic.Network
	stoppers map[uint8]*logic.Stopper
	sensors  map[uint8]logic.SensorID
}

func (b *builder) addStoppers() error {
	for _, c := range b.cfg.Stoppers {
		pin, err := b.lines.Output(c.Line, !logic.StopperActiveLevel)
		if err != nil {
			return fmt.Errorf("stopper %d: %w", c.ID, err)
		}
		st := logic.NewStopper(c.ID, pin)
		b.net.AddStopper(st)
		b.stoppers[c.ID] = st
	}
	return nil
}

func (b *builder) addSensors() error {
	for _, c := range b.cfg.Sensors {
		pin, err := b.lines.Input(c.Line)
		if err != nil {
			return fmt.Errorf("sensor %d: %w", c.ID, err)
		}
		b.sensors[c.ID] = b.net.AddSensor(logic.NewSensor(c.ID, pin))
	}
	return nil
}

func (b *builder) addSections() {
	for _, c := range b.cfg.Sections {
		sec := logic.NewSection(c.ID)
		b.net.AddSection(sec)
		for _, id := range c.Stoppers {
			sec.AddStopper(b.stoppers[id])
		}
		for _, id := range c.Entry {
			sec.AddSensor(logic.EntrySensor, b.sensors[id])
		}
		for _, id := range c.Exit {
			sec.AddSensor(logic.ExitSensor, b.sensors[id])
		}
	}
}

func (b *builder) arms() (logic.Arms, error) {
	in := b.cfg.Intersection
	var arms logic.Arms
	for _, a := range []struct {
		name string
		cfg  config.Arm
		dst  *logic.Arm
	}{
		{"left", in.Left, &arms.Left},
		{"right", in.Right, &arms.Right},
		{"upper", in.Upper, &arms.Upper},
	} {
		arm, err := b.arm(a.cfg)
		if err != nil {
			return logic.Arms{}, fmt.Errorf("%s arm: %w", a.name, err)
		}
		*a.dst = arm
	}
	return arms, nil
}

func (b *builder) arm(c config.Arm) (logic.Arm, error) {
	var lamps [3]gpio.Output
	for i, line := range []int{c.Light.Green, c.Light.Yellow, c.Light.Red} {
		out, err := b.lines.Output(line, !logic.LightActiveLevel)
		if err != nil {
			return logic.Arm{}, fmt.Errorf("light: %w", err)
		}
		lamps[i] = out
	}

	sc := logic.ServoConfig{
		ID:         c.Servo.Channel,
		Address:    b.cfg.ServoBus.Address,
		RightAngle: c.Servo.Right,
		LeftAngle:  c.Servo.Left,
	}
	if c.Servo.Pulse != nil {
		out, err := b.lines.Output(*c.Servo.Pulse, false)
		if err != nil {
			return logic.Arm{}, fmt.Errorf("servo pulse: %w", err)
		}
		sc.Pulse = out
	}
	var bus drivers.I2C
	if b.cfg.ServoBus.Address != 0 {
		bus = b.bus
	}

	return logic.Arm{
		Stopper: b.stoppers[c.Stopper],
		Light:   logic.NewLight(lamps[0], lamps[1], lamps[2]),
		Servo:   logic.NewServo(bus, sc),
	}, nil
}
