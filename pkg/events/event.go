package events

import (
	"strconv"
	"strings"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "TRIP_MATCHED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// TypeCode strips the "events." subject prefix NATS puts in front of the type.
func TypeCode(e Event) string {
	return strings.TrimPrefix(e.EventType(), SubjectPrefix)
}

// DriverID pulls the driver identifier out of an event payload. Trip services
// send it as "driver_id"; older producers used "driverId", sometimes numeric.
func DriverID(e Event) (string, bool) {
	payload := e.Payload()
	for _, key := range []string{"driver_id", "driverId"} {
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				return v, true
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		}
	}
	return "", false
}
