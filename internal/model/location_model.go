package model

import "strings"

const driverMemberPrefix = "driver:"

// Position is a WGS84 point. Longitude first, matching the geo index argument order.
type Position struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// GeoCandidate is one raw hit from a radius query, distance in kilometres.
type GeoCandidate struct {
	Member     string
	DistanceKm float64
}

// NearbyDriver is a live driver returned by a proximity search.
type NearbyDriver struct {
	DriverID   string  `json:"driverId"`
	DistanceKm float64 `json:"distanceKm"`
}

// DriverMember returns the geo index member name for a driver.
func DriverMember(driverID string) string {
	return driverMemberPrefix + driverID
}

// DriverIDFromMember reverses DriverMember. ok is false for foreign members.
func DriverIDFromMember(member string) (string, bool) {
	id, ok := strings.CutPrefix(member, driverMemberPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
