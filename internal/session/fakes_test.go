package session

import (
	"context"
	"sync"
	"trip-route-service/internal/domain"
)

type routerFunc func(ctx context.Context, req domain.RouteRequest) ([]domain.Route, error)

func (f routerFunc) CalculateRoute(ctx context.Context, req domain.RouteRequest) ([]domain.Route, error) {
	return f(ctx, req)
}

type stubBackend struct {
	mu     sync.Mutex
	trip   domain.TripRecord
	report domain.Report
	logged []domain.TripRequest

	// listGate, when set, holds every ListTrips call until it is closed.
	listGate chan struct{}
}

func (b *stubBackend) LogTrip(ctx context.Context, req domain.TripRequest) (domain.TripRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logged = append(b.logged, req)
	return b.trip, nil
}

func (b *stubBackend) ListTrips(ctx context.Context) (domain.Report, error) {
	if b.listGate != nil {
		select {
		case <-b.listGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return b.report, nil
}
