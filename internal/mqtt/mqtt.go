// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/chime-clock/internal/logic"
)

// Topic is the MQTT topic for clock events.
const Topic = "home/chime-clock/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/chime-clock/system"

// TopicCommand carries operator time-set lines ("yyyy/mm/dd hh:mm:ss").
const TopicCommand = "home/chime-clock/set"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a clock event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Clock ClockPayload `json:"clock"`
}

// ClockPayload contains the event details.
type ClockPayload struct {
	Timestamp       string `json:"timestamp"`
	Event           string `json:"event"`
	Line            *int   `json:"line,omitempty"`
	Track           int    `json:"track,omitempty"`
	DurationSeconds *int64 `json:"duration_seconds,omitempty"`
	ChimeEnabled    bool   `json:"chime_enabled"`
	Time            string `json:"time,omitempty"`
}

// FormatPayload creates the JSON payload for a clock event.
func FormatPayload(event logic.Event) ([]byte, error) {
	p := ClockPayload{
		Timestamp:    event.Timestamp.UTC().Format(time.RFC3339),
		Event:        string(event.Type),
		Track:        event.Track,
		ChimeEnabled: event.ChimeEnabled,
	}
	switch event.Type {
	case logic.EventButtonPressed, logic.EventButtonReleased:
		line := event.Line
		p.Line = &line
	case logic.EventPlaybackFinished:
		d := event.DurationSeconds
		p.DurationSeconds = &d
	}
	if event.Clock != (logic.ClockSnapshot{}) {
		p.Time = event.Clock.String()
	}
	return json.Marshal(Payload{Clock: p})
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
