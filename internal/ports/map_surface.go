package ports

import (
	"trip-route-service/internal/domain"

	"github.com/paulmach/orb"
)

type MarkerID int
type PolylineID int
type BubbleID int

type MarkerKind string

const (
	MarkerWaypoint MarkerKind = "waypoint"
	MarkerManeuver MarkerKind = "maneuver"
)

// MapSurface is the map rendering SDK. All calls are synchronous.
type MapSurface interface {
	AddMarker(kind MarkerKind, at domain.Point, payload string) MarkerID
	RemoveMarker(id MarkerID)
	DrawPolyline(points []domain.Point) PolylineID
	RemovePolyline(id PolylineID)
	FitBounds(b orb.Bound)
	SetCenter(at domain.Point)
	OpenBubble(at domain.Point, text string) BubbleID
	UpdateBubble(id BubbleID, at domain.Point, text string)
}
