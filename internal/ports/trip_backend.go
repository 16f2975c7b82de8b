package ports

import (
	"context"
	"trip-route-service/internal/domain"
)

// Client-side boundary to the trip-logging backend.
type TripBackend interface {
	// Log a trip and return the backend's cost metrics for it.
	LogTrip(ctx context.Context, req domain.TripRequest) (domain.TripRecord, error)
	// Return the server-ordered trip history.
	ListTrips(ctx context.Context) (domain.Report, error)
}

// Port: persistence for logged trips on the backend side.
type TripRepository interface {
	Save(ctx context.Context, rec domain.TripRecord) (domain.TripRecord, error)
	List(ctx context.Context) (domain.Report, error)
}

// Port: cache of routing service replies keyed by request.
type RouteCache interface {
	Get(ctx context.Context, req domain.RouteRequest) ([]domain.Route, bool, error)
	Put(ctx context.Context, req domain.RouteRequest, routes []domain.Route) error
}
