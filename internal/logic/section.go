package logic

// SensorKind says whether a sensor marks entry into or exit from a section.
type SensorKind uint8

const (
	EntrySensor SensorKind = iota
	ExitSensor
)

func (k SensorKind) String() string {
	if k == ExitSensor {
		return "exit"
	}
	return "entry"
}

// MaxSectionSlots is the capacity for stoppers and for each kind of sensor.
const MaxSectionSlots = 2

type sectionRef struct {
	net *Network
	id  SectionID
}

// Section is a monitored stretch of road. Entry sensors add a lock to
// every attached stopper, exit sensors release one.
type Section struct {
	id           uint8
	locks        int
	stoppers     [MaxSectionSlots]*Stopper
	entrySensors [MaxSectionSlots]SensorID
	exitSensors  [MaxSectionSlots]SensorID
	nEntry       int
	nExit        int
	self         *sectionRef
	guard        guard
}

// NewSection creates an empty section. It must be added to a Network (or
// given a self reference) before sensors can be attached.
func NewSection(id uint8) *Section {
	return &Section{id: id}
}

// ID returns the section id.
func (s *Section) ID() uint8 { return s.id }

// Locks returns the occupancy counter. It can be negative.
func (s *Section) Locks() int { return s.locks }

// SetSelfReference records the handle sensors use to call back into s.
func (s *Section) SetSelfReference(net *Network, id SectionID) {
	if net == nil {
		configFault("section %d: nil network", s.id)
	}
	s.self = &sectionRef{net: net, id: id}
}

// OnEntry is called by an entry sensor.
func (s *Section) OnEntry() {
	defer s.guard.enter("section entry")()
	s.locks++
	s.notify(EventSectionEntry)
	for _, st := range s.stoppers {
		if st == nil {
			break
		}
		st.Lock()
	}
}

// OnExit is called by an exit sensor. Stoppers are released even when the
// occupancy counter is already at or below zero.
func (s *Section) OnExit() {
	defer s.guard.enter("section exit")()
	s.locks--
	s.notify(EventSectionExit)
	for _, st := range s.stoppers {
		if st == nil {
			break
		}
		st.Release()
	}
}

// AddSensor registers s with the sensor and records it.
func (s *Section) AddSensor(kind SensorKind, id SensorID) {
	if s.self == nil {
		configFault("section %d: no self reference set", s.id)
	}
	sensor := s.self.net.Sensor(id)

	switch kind {
	case EntrySensor:
		if s.nEntry == MaxSectionSlots {
			configFault("section %d: no more than %d entry sensors allowed", s.id, MaxSectionSlots)
		}
		sensor.addEntryOwner(s.self.id)
		s.entrySensors[s.nEntry] = id
		s.nEntry++
	case ExitSensor:
		if s.nExit == MaxSectionSlots {
			configFault("section %d: no more than %d exit sensors allowed", s.id, MaxSectionSlots)
		}
		sensor.addExitOwner(s.self.id)
		s.exitSensors[s.nExit] = id
		s.nExit++
	default:
		configFault("section %d: unknown sensor kind %d", s.id, kind)
	}
}

// AddStopper attaches a stopper. Stoppers may be shared between sections.
func (s *Section) AddStopper(st *Stopper) {
	if st == nil {
		configFault("section %d: nil stopper", s.id)
	}
	for i := range s.stoppers {
		if s.stoppers[i] == nil {
			s.stoppers[i] = st
			return
		}
	}
	configFault("section %d: no more than %d stoppers allowed", s.id, MaxSectionSlots)
}

// Sensors returns the attached sensor handles of the given kind.
func (s *Section) Sensors(kind SensorKind) []SensorID {
	if kind == ExitSensor {
		return s.exitSensors[:s.nExit]
	}
	return s.entrySensors[:s.nEntry]
}

// Stoppers returns the attached stoppers in registration order.
func (s *Section) Stoppers() []*Stopper {
	n := 0
	for n < len(s.stoppers) && s.stoppers[n] != nil {
		n++
	}
	return s.stoppers[:n]
}

func (s *Section) notify(kind EventKind) {
	if s.self == nil {
		return
	}
	s.self.net.notify(Event{Kind: kind, Source: s.id, Value: s.locks})
}
