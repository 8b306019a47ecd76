package events

import "time"

const SubjectPrefix = "events."

// Trip lifecycle events consumed by the directive broadcaster.
const (
	TypeTripMatched   = "TRIP_MATCHED"
	TypeTripCompleted = "TRIP_COMPLETED"
	TypeTripCanceled  = "TRIP_CANCELED"
)

// TypeDriverLocationUpdated is emitted on every accepted position report.
const TypeDriverLocationUpdated = "DRIVER_LOCATION_UPDATED"

func Subject(eventType string) string {
	return SubjectPrefix + eventType
}

func NewTripEvent(eventType, driverID string) BaseEvent {
	return BaseEvent{
		Type:       eventType,
		Data:       map[string]interface{}{"driver_id": driverID},
		OccurredAt: time.Now(),
	}
}

func NewDriverLocationUpdated(driverID string, latitude, longitude float64) BaseEvent {
	return BaseEvent{
		Type: TypeDriverLocationUpdated,
		Data: map[string]interface{}{
			"driver_id": driverID,
			"latitude":  latitude,
			"longitude": longitude,
		},
		OccurredAt: time.Now(),
	}
}
