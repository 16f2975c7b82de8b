package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"
)

type Strategy string

const (
	// Ask the routing service directly.
	StrategyDirect Strategy = "direct"
	// Log the trip with the backend first, then ask the routing service.
	StrategyBackend Strategy = "backend"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyDirect, "":
		return StrategyDirect, nil
	case StrategyBackend:
		return StrategyBackend, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

// RouteOutcome is either a success (Route set, Trip set for the backend
// strategy) or a failure (Err set). Pair is the selection it was built from.
type RouteOutcome struct {
	Pair  domain.Pair
	Route *domain.RouteResponse
	Trip  *domain.TripRecord
	Err   error
}

func (o RouteOutcome) OK() bool { return o.Err == nil && o.Route != nil }

func (o RouteOutcome) Kind() domain.ErrorKind { return domain.KindOf(o.Err) }

// Message is the user-visible text of a failed outcome.
func (o RouteOutcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return UserMessage(o.Err)
}

// UserMessage renders err for display, naming the side that failed.
func UserMessage(err error) string {
	var de *domain.Error
	if !errors.As(err, &de) {
		return err.Error()
	}
	msg := de.Message
	if de.Side != "" {
		msg = string(de.Side) + ": " + msg
	}
	return msg
}

type OrchestratorConfig struct {
	Language     string
	ReturnFields []string
	// Bounds every network call. Expiry is reported as a network failure.
	Timeout time.Duration
}

// Orchestrator turns a completed selection into a RouteOutcome. It never
// returns errors or panics to its caller.
type Orchestrator struct {
	router  ports.RoutingService
	backend ports.TripBackend
	cfg     OrchestratorConfig
	logger  *slog.Logger
}

func NewOrchestrator(router ports.RoutingService, backend ports.TripBackend, cfg OrchestratorConfig, logger *slog.Logger) *Orchestrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if len(cfg.ReturnFields) == 0 {
		cfg.ReturnFields = domain.DefaultReturnFields
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		router:  router,
		backend: backend,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "orchestrator")),
	}
}

// Request dispatches pair with the given strategy.
func (o *Orchestrator) Request(ctx context.Context, strategy Strategy, pair domain.Pair, mode domain.TransportMode) RouteOutcome {
	switch strategy {
	case StrategyBackend:
		return o.RequestViaBackend(ctx, pair, mode)
	case StrategyDirect:
		return o.RequestDirect(ctx, pair, mode)
	}
	return failure(pair, domain.NewError(domain.KindInvalidRequest, "", fmt.Sprintf("unknown strategy %q", strategy), nil))
}

// RequestAsync runs Request on its own goroutine. The channel yields exactly
// one outcome and is then closed.
func (o *Orchestrator) RequestAsync(ctx context.Context, strategy Strategy, pair domain.Pair, mode domain.TransportMode) <-chan RouteOutcome {
	out := make(chan RouteOutcome, 1)
	go func() {
		defer close(out)
		defer func() {
			if r := recover(); r != nil {
				o.logger.ErrorContext(ctx, "route request panicked", slog.Any("panic", r))
				out <- failure(pair, domain.NewError(domain.KindInternal, "", fmt.Sprintf("route request panicked: %v", r), nil))
			}
		}()
		out <- o.Request(ctx, strategy, pair, mode)
	}()
	return out
}

// RequestDirect asks the routing service for the route between pair.
func (o *Orchestrator) RequestDirect(ctx context.Context, pair domain.Pair, mode domain.TransportMode) RouteOutcome {
	if !mode.Valid() {
		return failure(pair, domain.NewError(domain.KindInvalidRequest, domain.SideRouting, fmt.Sprintf("invalid transport mode %q", mode), nil))
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	req := domain.NewRouteRequest(pair, mode, o.cfg.Language, o.cfg.ReturnFields)
	routes, err := o.router.CalculateRoute(ctx, req)
	if err != nil {
		return failure(pair, classify(ctx, domain.SideRouting, "calculate route", err))
	}

	if len(routes) == 0 {
		return failure(pair, domain.NewError(domain.KindMalformedResponse, domain.SideRouting, "response has no routes[0]", nil))
	}
	if len(routes[0].Sections) == 0 {
		return failure(pair, domain.NewError(domain.KindMalformedResponse, domain.SideRouting, "route has no sections", nil))
	}

	return RouteOutcome{
		Pair:  pair,
		Route: &domain.RouteResponse{Sections: routes[0].Sections},
	}
}

// RequestViaBackend logs the trip with the backend and, only once that
// succeeds, fetches the route for rendering.
func (o *Orchestrator) RequestViaBackend(ctx context.Context, pair domain.Pair, mode domain.TransportMode) RouteOutcome {
	if o.backend == nil {
		return failure(pair, domain.NewError(domain.KindInternal, domain.SideBackend, "no trip backend configured", nil))
	}
	if !mode.Valid() {
		return failure(pair, domain.NewError(domain.KindInvalidRequest, domain.SideBackend, fmt.Sprintf("invalid transport mode %q", mode), nil))
	}

	trip, err := o.logTrip(ctx, pair, mode)
	if err != nil {
		return failure(pair, err)
	}

	out := o.RequestDirect(ctx, pair, mode)
	if out.Err != nil {
		return out
	}
	out.Trip = &trip
	return out
}

func (o *Orchestrator) logTrip(ctx context.Context, pair domain.Pair, mode domain.TransportMode) (domain.TripRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	trip, err := o.backend.LogTrip(ctx, domain.TripRequest{
		Origin:        pair.Origin.String(),
		Destination:   pair.Destination.String(),
		TransportMode: mode,
	})
	if err != nil {
		return domain.TripRecord{}, classify(ctx, domain.SideBackend, "log trip", err)
	}
	return trip, nil
}

func failure(pair domain.Pair, err error) RouteOutcome {
	return RouteOutcome{Pair: pair, Err: err}
}

// classify makes sure err carries a kind and side. Context expiry and
// unclassified collaborator errors count as network failures.
func classify(ctx context.Context, side domain.Side, op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		if de.Side == "" {
			return domain.NewError(de.Kind, side, de.Message, de.Cause)
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewError(domain.KindNetwork, side, op+": request timed out", err)
	}
	return domain.NewError(domain.KindNetwork, side, op+": request failed", err)
}
