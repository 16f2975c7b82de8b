package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"
)

// TripLogger is the backend side of the backend-mediated strategy: it costs
// a trip from the router's reply and persists it.
type TripLogger struct {
	router   ports.RoutingService
	repo     ports.TripRepository
	language string
	timeout  time.Duration
	logger   *slog.Logger
}

func NewTripLogger(router ports.RoutingService, repo ports.TripRepository, language string, timeout time.Duration, logger *slog.Logger) *TripLogger {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TripLogger{
		router:   router,
		repo:     repo,
		language: language,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "trip_logger")),
	}
}

func (l *TripLogger) CalculateRoute(ctx context.Context, req domain.TripRequest) (domain.TripRecord, error) {
	if _, ok := FuelModifiers[req.TransportMode]; !ok {
		return domain.TripRecord{}, domain.NewError(domain.KindInvalidRequest, "", "invalid transport mode", nil)
	}

	origin, err := domain.ParsePoint(req.Origin)
	if err != nil {
		return domain.TripRecord{}, domain.NewError(domain.KindInvalidRequest, "", "invalid origin", err)
	}
	destination, err := domain.ParsePoint(req.Destination)
	if err != nil {
		return domain.TripRecord{}, domain.NewError(domain.KindInvalidRequest, "", "invalid destination", err)
	}

	pair := domain.Pair{Origin: origin, Destination: destination}
	routeReq := domain.NewRouteRequest(pair, req.TransportMode, l.language, domain.BackendReturnFields)

	rctx, cancel := context.WithTimeout(ctx, l.timeout)
	routes, err := l.router.CalculateRoute(rctx, routeReq)
	cancel()
	if err != nil {
		return domain.TripRecord{}, classify(rctx, domain.SideRouting, "calculate route", err)
	}
	if len(routes) == 0 || len(routes[0].Sections) == 0 {
		return domain.TripRecord{}, domain.NewError(domain.KindMalformedResponse, domain.SideRouting, "route has no sections", nil)
	}

	rec := costTrip(pair, req.TransportMode, routes[0].Sections)
	rec.FuelUsed, _ = FuelUsed(rec.Distance, req.TransportMode)

	saved, err := l.repo.Save(ctx, rec)
	if err != nil {
		return domain.TripRecord{}, domain.NewError(domain.KindInternal, domain.SideStore, "save trip", err)
	}

	l.logger.InfoContext(ctx, "trip logged",
		slog.String("id", saved.ID),
		slog.String("mode", saved.TransportMode),
		slog.Float64("distance", saved.Distance),
		slog.Float64("fuel_used", saved.FuelUsed),
	)
	return saved, nil
}

// costTrip sums the sections and takes the endpoints from the first departure
// and last arrival. Missing locations fall back to the requested pair.
func costTrip(pair domain.Pair, mode domain.TransportMode, sections []domain.Section) domain.TripRecord {
	first, last := sections[0], sections[len(sections)-1]

	var distance float64
	for _, s := range sections {
		distance += s.TravelSummary.Length
	}

	from := first.Departure.Location
	if from == (domain.Point{}) {
		from = pair.Origin
	}
	to := last.Arrival.Location
	if to == (domain.Point{}) {
		to = pair.Destination
	}

	transport := first.Transport
	if transport == "" {
		transport = string(mode)
	}

	return domain.TripRecord{
		Origin:        from.Label(),
		Destination:   to.Label(),
		Distance:      distance,
		DepartureTime: first.Departure.Time,
		ArrivalTime:   last.Arrival.Time,
		TransportMode: transport,
	}
}

func (l *TripLogger) Report(ctx context.Context) (domain.Report, error) {
	report, err := l.repo.List(ctx)
	if err != nil {
		return nil, domain.NewError(domain.KindInternal, domain.SideStore, "list trips", fmt.Errorf("report: %w", err))
	}
	return report, nil
}
