// Package status provides a thread-safe view of the controller state for
// lifecycle reports.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/intersection-control/internal/logic"
)

// Config contains controller configuration for display.
type Config struct {
	Layout          string
	Broker          string
	TickUs          int64
	SensorMs        int64
	PhaseMs         int64
	HeartbeatMs     int64
	ServoBusEnabled bool
}

// StopperState is one stopper as last observed.
type StopperState struct {
	ID           uint8
	Blocking     bool
	SectionLocks uint
	Override     bool
}

// SectionState is one section as last observed.
type SectionState struct {
	ID    uint8
	Locks int
}

// Snapshot is a point-in-time view of controller state.
// It is a value type: slices and maps are copies.
type Snapshot struct {
	// Phase is -1 for layouts without an intersection.
	Phase         int
	PhaseName     string
	Stoppers      []StopperState
	Sections      []SectionState
	Counts        map[logic.EventKind]int
	Fault         string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the controller started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable controller state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Phase:     -1,
			Counts:    make(map[logic.EventKind]int),
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Observe counts a diagnostic event. It satisfies logic.Observer.
func (t *Tracker) Observe(e logic.Event) {
	t.mu.Lock()
	t.snap.Counts[e.Kind]++
	t.mu.Unlock()
}

// Update copies stopper, section and phase state. in may be nil.
// Called from the control loop.
func (t *Tracker) Update(net *logic.Network, in *logic.Intersection) {
	stoppers := make([]StopperState, 0, len(net.Stoppers()))
	for _, st := range net.Stoppers() {
		stoppers = append(stoppers, StopperState{
			ID:           st.ID(),
			Blocking:     st.Blocking(),
			SectionLocks: st.SectionLocks(),
			Override:     st.Override(),
		})
	}
	sections := make([]SectionState, 0, len(net.Sections()))
	for _, sec := range net.Sections() {
		sections = append(sections, SectionState{ID: sec.ID(), Locks: sec.Locks()})
	}

	phase, name := -1, ""
	if in != nil {
		phase = in.PhaseIndex()
		ph := in.Current()
		name = ph.Left.String() + "/" + ph.Right.String() + "/" + ph.Upper.String()
	}

	t.mu.Lock()
	t.snap.Stoppers = stoppers
	t.snap.Sections = sections
	t.snap.Phase = phase
	t.snap.PhaseName = name
	t.mu.Unlock()
}

// SetFault records the fault that halted the controller.
func (t *Tracker) SetFault(err error) {
	t.mu.Lock()
	t.snap.Fault = err.Error()
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the controller state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Stoppers = append([]StopperState(nil), t.snap.Stoppers...)
	s.Sections = append([]SectionState(nil), t.snap.Sections...)
	s.Counts = make(map[logic.EventKind]int, len(t.snap.Counts))
	for k, v := range t.snap.Counts {
		s.Counts[k] = v
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
