// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/cabin-monitor/internal/device"
)

// Topic is the MQTT topic for state change events.
const Topic = "cabin/monitor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "cabin/monitor/system"

// TopicCommand is the MQTT topic remote commands arrive on.
const TopicCommand = "cabin/monitor/command"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a state change to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(change device.Change) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// CommandHandler receives the token of a remote command, e.g. "fan_on".
type CommandHandler func(token string)

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Payload represents the MQTT message payload for a state change.
type Payload struct {
	Change ChangePayload `json:"change"`
}

// ChangePayload contains the change details. From and To carry the same
// labels the status page shows.
type ChangePayload struct {
	Timestamp string `json:"timestamp"`
	Field     string `json:"field"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     bool   `json:"value"`
}

// Label returns the display label of a field value.
func Label(field device.Field, v bool) string {
	switch field {
	case device.FieldButtonA, device.FieldButtonB:
		return device.ButtonLabel(v)
	default:
		return device.OnOffLabel(v)
	}
}

// FormatPayload creates the JSON payload for a state change.
func FormatPayload(change device.Change) ([]byte, error) {
	payload := Payload{
		Change: ChangePayload{
			Timestamp: change.Timestamp.UTC().Format(time.RFC3339),
			Field:     string(change.Field),
			From:      Label(change.Field, change.From),
			To:        Label(change.Field, change.To),
			Value:     change.To,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (OFFLINE, RECONNECTED) that don't carry a full status snapshot.
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

// FormatWillPayload is the last-will message the broker publishes if the
// connection drops without a clean disconnect.
func FormatWillPayload() []byte {
	data, _ := json.Marshal(SystemPayload{
		System: SystemPayloadInner{Event: "OFFLINE", Reason: "connection_lost"},
	})
	return data
}

// NopPublisher discards everything. Used when no broker is configured.
type NopPublisher struct{}

// NewNopPublisher returns a Publisher that does nothing.
func NewNopPublisher() NopPublisher { return NopPublisher{} }

func (NopPublisher) Publish(device.Change) error     { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }
func (NopPublisher) Close() error                    { return nil }
func (NopPublisher) IsConnected() bool               { return false }
