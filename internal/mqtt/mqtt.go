// Package mqtt publishes controller diagnostics to an MQTT broker, with an
// abstraction for testing. Nothing here feeds back into control.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/intersection-control/internal/logic"
)

// Topic is the MQTT topic for control events.
const Topic = "traffic/intersection/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "traffic/intersection/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a control event observed at the given time.
	// Returns error if publishing fails (should not crash the process).
	Publish(at time.Time, event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat, fault).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "FAULT"
	Reason     string // e.g., "SIGTERM", "io"
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Traffic TrafficPayload `json:"traffic"`
}

// TrafficPayload contains the control event details.
type TrafficPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Entity    string `json:"entity"`
	ID        uint8  `json:"id"`
	Value     int    `json:"value"`
}

// Entity names the kind of object an event came from.
func Entity(kind logic.EventKind) string {
	switch kind {
	case logic.EventSensorTriggered:
		return "sensor"
	case logic.EventSectionEntry, logic.EventSectionExit:
		return "section"
	case logic.EventStopperBlocked, logic.EventStopperCleared:
		return "stopper"
	case logic.EventPhaseChanged:
		return "phase"
	default:
		return "unknown"
	}
}

// FormatPayload creates the JSON payload for a control event.
func FormatPayload(at time.Time, event logic.Event) ([]byte, error) {
	payload := Payload{
		Traffic: TrafficPayload{
			Timestamp: at.UTC().Format(time.RFC3339),
			Event:     string(event.Kind),
			Entity:    Entity(event.Kind),
			ID:        event.Source,
			Value:     event.Value,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
