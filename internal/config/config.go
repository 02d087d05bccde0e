// Package config loads the wiring of a track: which GPIO line every stopper,
// sensor, lamp and servo uses, and how sections and intersection arms are
// put together.
package config

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed layouts/*.yaml
var layouts embed.FS

// Slot limits enforced by the control core.
const (
	MaxSectionStoppers = 2
	MaxSectionSensors  = 2
	MaxSensorOwners    = 2
	MaxServoAngle      = 180
)

// Config is a complete track description.
type Config struct {
	Layout       string        `yaml:"layout"`
	LED          int           `yaml:"led"`
	ServoBus     ServoBus      `yaml:"servo_bus,omitempty"`
	Stoppers     []Stopper     `yaml:"stoppers,omitempty"`
	Sensors      []Sensor      `yaml:"sensors,omitempty"`
	Sections     []Section     `yaml:"sections,omitempty"`
	Intersection *Intersection `yaml:"intersection,omitempty"`
}

// ServoBus is the servo controller on the I2C bus.
type ServoBus struct {
	Address uint16 `yaml:"address"`
}

// Stopper is a gate on one output line.
type Stopper struct {
	ID   uint8 `yaml:"id"`
	Line int   `yaml:"line"`
}

// Sensor is a presence detector on one input line.
type Sensor struct {
	ID   uint8 `yaml:"id"`
	Line int   `yaml:"line"`
}

// Section is a stretch of track gated by its stoppers. Entry and Exit list
// sensor ids.
type Section struct {
	ID       uint8   `yaml:"id"`
	Stoppers []uint8 `yaml:"stoppers"`
	Entry    []uint8 `yaml:"entry"`
	Exit     []uint8 `yaml:"exit"`
}

// Intersection holds the three arms.
type Intersection struct {
	Left  Arm `yaml:"left"`
	Right Arm `yaml:"right"`
	Upper Arm `yaml:"upper"`
}

// Arm is one approach: a stopper id plus its light and servo.
type Arm struct {
	Stopper uint8 `yaml:"stopper"`
	Light   Light `yaml:"light"`
	Servo   Servo `yaml:"servo"`
}

// Light lists the lamp lines.
type Light struct {
	Green  int `yaml:"green"`
	Yellow int `yaml:"yellow"`
	Red    int `yaml:"red"`
}

// Servo is a steering actuator. Pulse is optional.
type Servo struct {
	Channel uint8 `yaml:"channel"`
	Right   uint8 `yaml:"right"`
	Left    uint8 `yaml:"left"`
	Pulse   *int  `yaml:"pulse,omitempty"`
}

// Layouts returns the names of the built-in layouts.
func Layouts() []string {
	entries, err := layouts.ReadDir("layouts")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Default returns the built-in layout called name.
func Default(name string) (*Config, error) {
	data, err := layouts.ReadFile("layouts/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown layout %q (have %s)", name, strings.Join(Layouts(), ", "))
	}
	return Parse(data)
}

// Load reads and validates a layout file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a layout. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Marshal encodes cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("yaml marshal: %w", err)
	}
	return data, nil
}

// Validate reports every problem in cfg, joined into one error.
func (c *Config) Validate() error {
	v := &validator{lines: make(map[int]string)}

	v.line(c.LED, "led")

	stoppers := make(map[uint8]bool)
	for _, st := range c.Stoppers {
		if stoppers[st.ID] {
			v.errorf("stopper %d: duplicate id", st.ID)
		}
		stoppers[st.ID] = true
		v.line(st.Line, fmt.Sprintf("stopper %d", st.ID))
	}

	sensors := make(map[uint8]bool)
	for _, s := range c.Sensors {
		if sensors[s.ID] {
			v.errorf("sensor %d: duplicate id", s.ID)
		}
		sensors[s.ID] = true
		v.line(s.Line, fmt.Sprintf("sensor %d", s.ID))
	}

	sections := make(map[uint8]bool)
	entryOwners := make(map[uint8]int)
	exitOwners := make(map[uint8]int)
	for _, sec := range c.Sections {
		name := fmt.Sprintf("section %d", sec.ID)
		if sections[sec.ID] {
			v.errorf("%s: duplicate id", name)
		}
		sections[sec.ID] = true

		if len(sec.Stoppers) > MaxSectionStoppers {
			v.errorf("%s: %d stoppers, at most %d", name, len(sec.Stoppers), MaxSectionStoppers)
		}
		if len(sec.Entry) > MaxSectionSensors {
			v.errorf("%s: %d entry sensors, at most %d", name, len(sec.Entry), MaxSectionSensors)
		}
		if len(sec.Exit) > MaxSectionSensors {
			v.errorf("%s: %d exit sensors, at most %d", name, len(sec.Exit), MaxSectionSensors)
		}
		for _, id := range sec.Stoppers {
			if !stoppers[id] {
				v.errorf("%s: unknown stopper %d", name, id)
			}
		}
		for _, id := range sec.Entry {
			if !sensors[id] {
				v.errorf("%s: unknown entry sensor %d", name, id)
			}
			entryOwners[id]++
		}
		for _, id := range sec.Exit {
			if !sensors[id] {
				v.errorf("%s: unknown exit sensor %d", name, id)
			}
			exitOwners[id]++
		}
	}
	for _, s := range c.Sensors {
		if n := entryOwners[s.ID]; n > MaxSensorOwners {
			v.errorf("sensor %d: entry of %d sections, at most %d", s.ID, n, MaxSensorOwners)
		}
		if n := exitOwners[s.ID]; n > MaxSensorOwners {
			v.errorf("sensor %d: exit of %d sections, at most %d", s.ID, n, MaxSensorOwners)
		}
	}

	if in := c.Intersection; in != nil {
		channels := make(map[uint8]bool)
		for _, a := range []struct {
			name string
			arm  Arm
		}{{"left", in.Left}, {"right", in.Right}, {"upper", in.Upper}} {
			name := a.name + " arm"
			if !stoppers[a.arm.Stopper] {
				v.errorf("%s: unknown stopper %d", name, a.arm.Stopper)
			}
			v.line(a.arm.Light.Green, name+" green lamp")
			v.line(a.arm.Light.Yellow, name+" yellow lamp")
			v.line(a.arm.Light.Red, name+" red lamp")

			sv := a.arm.Servo
			if sv.Right > MaxServoAngle || sv.Left > MaxServoAngle {
				v.errorf("%s: servo angle must be between 0 and %d", name, MaxServoAngle)
			}
			if channels[sv.Channel] {
				v.errorf("%s: duplicate servo channel %d", name, sv.Channel)
			}
			channels[sv.Channel] = true
			if sv.Pulse != nil {
				v.line(*sv.Pulse, name+" servo pulse")
			} else if c.ServoBus.Address == 0 {
				v.errorf("%s: servo needs a pulse line or a servo_bus address", name)
			}
		}
	}

	if len(c.Sections) == 0 && c.Intersection == nil {
		v.errorf("layout has neither sections nor an intersection")
	}

	return errors.Join(v.errs...)
}

type validator struct {
	lines map[int]string
	errs  []error
}

func (v *validator) errorf(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

// line checks that offset is usable and not already claimed.
func (v *validator) line(offset int, owner string) {
	if offset < 0 {
		v.errorf("%s: negative line %d", owner, offset)
		return
	}
	if prev, ok := v.lines[offset]; ok {
		v.errorf("%s: line %d already used by %s", owner, offset, prev)
		return
	}
	v.lines[offset] = owner
}
