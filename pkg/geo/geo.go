// Package geo provides great-circle distance helpers on a spherical earth.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean earth radius used by the haversine formula
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate in decimal degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks the coordinate ranges
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return fmt.Errorf("coordinates must be numbers")
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %.6f out of range [-90, 90]", p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("longitude %.6f out of range [-180, 180]", p.Lng)
	}
	return nil
}

// NewPoint builds a point from optional coordinates; both must be present
func NewPoint(lat, lng *float64) *Point {
	if lat == nil || lng == nil {
		return nil
	}
	return &Point{Lat: *lat, Lng: *lng}
}

// DistanceKm returns the haversine distance between a and b in kilometers
func DistanceKm(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h slightly outside [0, 1] for antipodal points
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// WithinRadius reports whether the distance between a and b is at most radiusKm.
// A missing point on either side never satisfies the radius.
func WithinRadius(a, b *Point, radiusKm float64) (bool, float64) {
	if a == nil || b == nil {
		return false, math.Inf(1)
	}
	d := DistanceKm(*a, *b)
	return d <= radiusKm, d
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
