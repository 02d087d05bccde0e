package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/intersection-control/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Phase         *PhaseJSON    `json:"phase,omitempty"`
	Stoppers      []StopperJSON `json:"stoppers"`
	Sections      []SectionJSON `json:"sections"`
	Fault         string        `json:"fault,omitempty"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"event_counts"`
	Config        ConfigJSON    `json:"config"`
}

// PhaseJSON is the active intersection phase.
type PhaseJSON struct {
	Index   int    `json:"index"`
	Actions string `json:"actions"`
}

// StopperJSON is one stopper.
type StopperJSON struct {
	ID           uint8 `json:"id"`
	Blocking     bool  `json:"blocking"`
	SectionLocks uint  `json:"section_locks"`
	Override     bool  `json:"override"`
}

// SectionJSON is one section.
type SectionJSON struct {
	ID    uint8 `json:"id"`
	Locks int   `json:"locks"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	SensorTriggered int `json:"sensor_triggered"`
	SectionEntry    int `json:"section_entry"`
	SectionExit     int `json:"section_exit"`
	StopperBlocked  int `json:"stopper_blocked"`
	StopperCleared  int `json:"stopper_cleared"`
	PhaseChanged    int `json:"phase_changed"`
}

// ConfigJSON is the JSON representation of controller config.
type ConfigJSON struct {
	Layout      string `json:"layout"`
	TickUs      int64  `json:"tick_us"`
	SensorMs    int64  `json:"sensor_ms"`
	PhaseMs     int64  `json:"phase_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	ServoBus    bool   `json:"servo_bus"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Stoppers:      make([]StopperJSON, 0, len(snap.Stoppers)),
		Sections:      make([]SectionJSON, 0, len(snap.Sections)),
		Fault:         snap.Fault,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			SensorTriggered: snap.Counts[logic.EventSensorTriggered],
			SectionEntry:    snap.Counts[logic.EventSectionEntry],
			SectionExit:     snap.Counts[logic.EventSectionExit],
			StopperBlocked:  snap.Counts[logic.EventStopperBlocked],
			StopperCleared:  snap.Counts[logic.EventStopperCleared],
			PhaseChanged:    snap.Counts[logic.EventPhaseChanged],
		},
		Config: ConfigJSON{
			Layout:      snap.Config.Layout,
			TickUs:      snap.Config.TickUs,
			SensorMs:    snap.Config.SensorMs,
			PhaseMs:     snap.Config.PhaseMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			ServoBus:    snap.Config.ServoBusEnabled,
		},
	}
	if snap.Phase >= 0 {
		inner.Phase = &PhaseJSON{Index: snap.Phase, Actions: snap.PhaseName}
	}
	for _, st := range snap.Stoppers {
		inner.Stoppers = append(inner.Stoppers, StopperJSON(st))
	}
	for _, sec := range snap.Sections {
		inner.Sections = append(inner.Sections, SectionJSON(sec))
	}
	return inner
}

// FormatJSON returns the indented JSON status (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
