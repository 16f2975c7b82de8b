package ports

import (
	"context"
	"trip-route-service/internal/domain"
)

// Contract for the external routing service.
type RoutingService interface {
	// Return the routes computed for req. An empty slice is a valid reply;
	// callers decide whether a missing routes[0] is acceptable.
	CalculateRoute(ctx context.Context, req domain.RouteRequest) ([]domain.Route, error)
}

// Decodes an opaque encoded polyline into a flat (lat, lng, altitude) sequence.
// Each point occupies three consecutive slots.
type GeometryDecoder interface {
	Decode(encoded string) ([]float64, error)
}
