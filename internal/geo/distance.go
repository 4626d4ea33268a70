package geo

import (
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius.
const EarthRadiusKm = 6371.0088

// LatLng converts p to an s2 lat/lng.
func (p GeoPoint) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lng)
}

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b GeoPoint) float64 {
	return a.LatLng().Distance(b.LatLng()).Radians() * EarthRadiusKm
}
