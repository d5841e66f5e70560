package domain

import "math"

// Location is a WGS84 coordinate. Unknown locations are represented by a nil *Location.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether l is a finite coordinate inside the lat/lng ranges.
func (l Location) Valid() bool {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lng) || math.IsInf(l.Lat, 0) || math.IsInf(l.Lng, 0) {
		return false
	}
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// Ptr returns a pointer to a copy of l.
func (l Location) Ptr() *Location {
	return &l
}
