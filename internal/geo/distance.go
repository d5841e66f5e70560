// Package geo holds great-circle helpers used by dispatch.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"local-dispatch/internal/domain"
)

// EarthRadiusKm is the mean radius of the sphere used by Distance.
const EarthRadiusKm = 6371.0

// orb builds bounds on a 6378.137 km sphere; the padding keeps the box a superset.
const boundPadding = 1.01

// Distance returns the haversine distance between a and b in kilometers.
// NaN coordinates produce NaN.
func Distance(a, b domain.Location) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := lat2 - lat1
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h slightly past 1 for antipodal points
	h = math.Min(1, h)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// WithinRadius reports whether p lies within km of center.
// A bounding box rejects far points before the exact haversine check.
func WithinRadius(center, p domain.Location, km float64) bool {
	if km <= 0 {
		return true
	}
	bound := orbgeo.NewBoundAroundPoint(point(center), km*1000*boundPadding)
	if !bound.Contains(point(p)) {
		return false
	}
	return Distance(center, p) <= km
}

func point(l domain.Location) orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
