package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Immutable geographic point (latitude, longitude).
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String renders the "lat,lng" wire format shared by every caller of the
// routing service and the backend. Floats keep their full precision.
func (p Point) String() string {
	return formatCoord(p.Lat) + "," + formatCoord(p.Lng)
}

// Label renders the point the way the backend stores trip endpoints ("lat, lng").
func (p Point) Label() string {
	return formatCoord(p.Lat) + ", " + formatCoord(p.Lng)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParsePoint parses the "lat,lng" format produced by Point.String.
func ParsePoint(s string) (Point, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, fmt.Errorf("parse point %q: expected \"lat,lng\"", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse point %q: latitude: %w", s, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse point %q: longitude: %w", s, err)
	}

	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Point{}, fmt.Errorf("parse point %q: coordinates out of range", s)
	}

	return Point{Lat: lat, Lng: lng}, nil
}

// A completed origin/destination selection.
// Route requests are only ever built from a Pair.
type Pair struct {
	Origin      Point
	Destination Point
}
