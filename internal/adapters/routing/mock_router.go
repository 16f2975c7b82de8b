package routing

import (
	"context"
	"fmt"
	"sync"
	"trip-route-service/internal/domain"
)

// MockRouter answers from a fixed table keyed by "origin|destination".
type MockRouter struct {
	mu       sync.Mutex
	routes   map[string][]domain.Route
	requests []domain.RouteRequest
}

func NewMockRouter() *MockRouter {
	return &MockRouter{routes: make(map[string][]domain.Route)}
}

func (m *MockRouter) Add(pair domain.Pair, routes ...domain.Route) *MockRouter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[mockKey(pair.Origin, pair.Destination)] = routes
	return m
}

func (m *MockRouter) CalculateRoute(ctx context.Context, req domain.RouteRequest) ([]domain.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	routes, ok := m.routes[mockKey(req.Origin, req.Destination)]
	if !ok {
		return nil, domain.NewError(domain.KindNetwork, domain.SideRouting,
			fmt.Sprintf("no route for %s -> %s", req.Origin, req.Destination), nil)
	}
	return routes, nil
}

// Requests returns every request received so far.
func (m *MockRouter) Requests() []domain.RouteRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RouteRequest(nil), m.requests...)
}

func mockKey(origin, destination domain.Point) string {
	return origin.String() + "|" + destination.String()
}
