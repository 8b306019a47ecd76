package utils

import "math"

// earthRadiusKm is the radius Redis uses for its GEO commands, so in-memory
// distances agree with GEORADIUS output.
const earthRadiusKm = 6372.797560856

// HaversineKm returns the great-circle distance between two lon/lat points.
func HaversineKm(lon1, lat1, lon2, lat2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dLat := rlat2 - rlat1
	dLon := (lon2 - lon1) * math.Pi / 180

	u := math.Sin(dLat / 2)
	v := math.Sin(dLon / 2)
	a := u*u + math.Cos(rlat1)*math.Cos(rlat2)*v*v
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
