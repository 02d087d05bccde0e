package logic

// Handles into a Network. They are stable for the life of the network.
type (
	StopperID int
	SensorID  int
	SectionID int
)

// Network is the arena owning every stopper, sensor and section. Sensors
// reach their sections through SectionID handles resolved here, so the
// section/sensor graph holds no pointer cycles.
type Network struct {
	stoppers []*Stopper
	sensors  []*Sensor
	sections []*Section
	observer Observer
}

// NewNetwork creates an empty network.
func NewNetwork() *Network {
	return &Network{}
}

// SetObserver installs the diagnostics observer. nil disables diagnostics.
func (n *Network) SetObserver(o Observer) {
	n.observer = o
}

// AddStopper adds st and returns its handle.
func (n *Network) AddStopper(st *Stopper) StopperID {
	if st == nil {
		configFault("network: nil stopper")
	}
	if st.net != nil {
		configFault("stopper %d: already in a network", st.id)
	}
	st.net = n
	n.stoppers = append(n.stoppers, st)
	return StopperID(len(n.stoppers) - 1)
}

// AddSensor adds s and returns its handle.
func (n *Network) AddSensor(s *Sensor) SensorID {
	if s == nil {
		configFault("network: nil sensor")
	}
	if s.net != nil {
		configFault("sensor %d: already in a network", s.id)
	}
	s.net = n
	n.sensors = append(n.sensors, s)
	return SensorID(len(n.sensors) - 1)
}

// AddSection adds s, sets its self reference and returns its handle.
func (n *Network) AddSection(s *Section) SectionID {
	if s == nil {
		configFault("network: nil section")
	}
	if s.self != nil {
		configFault("section %d: already in a network", s.id)
	}
	id := SectionID(len(n.sections))
	n.sections = append(n.sections, s)
	s.SetSelfReference(n, id)
	return id
}

// Stopper resolves a handle.
func (n *Network) Stopper(id StopperID) *Stopper {
	if id < 0 || int(id) >= len(n.stoppers) {
		configFault("network: unknown stopper handle %d", id)
	}
	return n.stoppers[id]
}

// Sensor resolves a handle.
func (n *Network) Sensor(id SensorID) *Sensor {
	if id < 0 || int(id) >= len(n.sensors) {
		configFault("network: unknown sensor handle %d", id)
	}
	return n.sensors[id]
}

// Section resolves a handle.
func (n *Network) Section(id SectionID) *Section {
	if id < 0 || int(id) >= len(n.sections) {
		configFault("network: unknown section handle %d", id)
	}
	return n.sections[id]
}

// Stoppers returns every stopper in insertion order.
func (n *Network) Stoppers() []*Stopper { return n.stoppers }

// Sensors returns every sensor in insertion order.
func (n *Network) Sensors() []*Sensor { return n.sensors }

// Sections returns every section in insertion order.
func (n *Network) Sections() []*Section { return n.sections }

func (n *Network) notify(e Event) {
	if n == nil || n.observer == nil {
		return
	}
	n.observer.Observe(e)
}
