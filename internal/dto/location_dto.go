package dto

import "driver-location-be/internal/model"

// UpdateLocationRequest is the position report a driver sends over the
// WebSocket (or PUT /api/locations/:driverId). Pointers so 0 is a valid value.
type UpdateLocationRequest struct {
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
}

func (r UpdateLocationRequest) Position() model.Position {
	return Position(*r.Longitude, *r.Latitude)
}

func Position(longitude, latitude float64) model.Position {
	return model.Position{Longitude: longitude, Latitude: latitude}
}

type SearchNearbyRequest struct {
	Longitude *float64 `query:"longitude" validate:"required,gte=-180,lte=180"`
	Latitude  *float64 `query:"latitude" validate:"required,gte=-90,lte=90"`
	Radius    int      `query:"radius" validate:"gte=1,lte=20"`
}

type NearbyDriverResponse struct {
	DriverID   string  `json:"driverId"`
	DistanceKm float64 `json:"distanceKm"`
}

// TripEventRequest feeds a business event through the debug endpoint.
type TripEventRequest struct {
	Type     string `json:"type" validate:"required"`
	DriverID string `json:"driver_id" validate:"required"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	StoreDriver    string `json:"store_driver"`
	Redis          string `json:"redis,omitempty"`
	ActiveSessions int    `json:"active_sessions"`
}
