package geo

import (
	"math"

	"laundryops/internal/domain"
)

// EarthRadiusKm is the mean radius of the spherical Earth approximation.
const EarthRadiusKm = 6371.0

type Point = domain.GeoPoint

// DistanceKm returns the haversine great-circle distance between a and b.
// Coordinates are decimal degrees; range validation is the caller's job.
func DistanceKm(a, b Point) float64 {
	if a == b {
		return 0
	}

	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(radians(a.Latitude))*math.Cos(radians(b.Latitude))*sinLon*sinLon

	// sqrt(h) can overshoot 1 by an ulp near antipodes.
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Round1 rounds a distance to one decimal place for display.
func Round1(km float64) float64 {
	return math.Round(km*10) / 10
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
