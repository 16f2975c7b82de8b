// Package session drives one interactive map: waypoint picks, route
// requests, rendering and the trip report.
package session

import (
	"context"
	"log/slog"
	"sync"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"
	"trip-route-service/internal/render"
	"trip-route-service/internal/services"
	"trip-route-service/internal/waypoint"
)

// Completion is a finished route request tagged with the generation it was
// dispatched under.
type Completion struct {
	Generation uint64
	Outcome    services.RouteOutcome
}

// ReportCompletion is a finished report fetch tagged with the sequence number
// it was requested under. Only the latest fetch is shown.
type ReportCompletion struct {
	Seq     uint64
	View    ports.ReportView
	Outcome services.ReportOutcome
}

// Result tells the caller what applying a completion did.
type Result int

const (
	Discarded Result = iota
	Rendered
	Failed
)

func (r Result) String() string {
	switch r {
	case Rendered:
		return "rendered"
	case Failed:
		return "failed"
	}
	return "discarded"
}

type Config struct {
	Strategy services.Strategy
	Mode     domain.TransportMode
}

// Session is not safe for concurrent use. Route requests and report fetches
// run on their own goroutines but their completions are only applied by
// Await or Run. Close ends the session and waits for those goroutines.
type Session struct {
	store    *waypoint.Store
	orch     *services.Orchestrator
	pipeline *render.Pipeline
	surface  ports.MapSurface
	panel    ports.PanelView
	report   *services.ReportAggregator
	cfg      Config
	logger   *slog.Logger

	waypoints   []ports.MarkerID
	generation  uint64
	completions chan Completion
	pending     int

	reportSeq      uint64
	reports        chan ReportCompletion
	pendingReports int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(
	orch *services.Orchestrator,
	pipeline *render.Pipeline,
	surface ports.MapSurface,
	panel ports.PanelView,
	report *services.ReportAggregator,
	cfg Config,
	logger *slog.Logger,
) *Session {
	if cfg.Strategy == "" {
		cfg.Strategy = services.StrategyDirect
	}
	if cfg.Mode == "" {
		cfg.Mode = domain.ModeCar
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		store:       waypoint.NewStore(),
		orch:        orch,
		pipeline:    pipeline,
		surface:     surface,
		panel:       panel,
		report:      report,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "session")),
		completions: make(chan Completion, 8),
		reports:     make(chan ReportCompletion, 1),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Close cancels every in-flight request and waits until their goroutines
// have exited. Undelivered completions are dropped.
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
}

// scope derives a request context that ends with ctx or with the session.
func (s *Session) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return reqCtx, func() {
		stop()
		cancel()
	}
}

// Pick feeds a map tap into the waypoint store and applies the resulting
// events. A completed selection dispatches a route request.
func (s *Session) Pick(ctx context.Context, p domain.Point) {
	for _, ev := range s.store.Select(p) {
		s.apply(ctx, ev)
	}
}

// Reset discards the selection, its markers and the drawn route.
func (s *Session) Reset(ctx context.Context) {
	for _, ev := range s.store.Reset() {
		s.apply(ctx, ev)
	}
}

func (s *Session) apply(ctx context.Context, ev waypoint.Event) {
	switch ev := ev.(type) {
	case waypoint.Cleared:
		s.pipeline.Clear()
		for _, id := range s.waypoints {
			s.surface.RemoveMarker(id)
		}
		s.waypoints = nil
		s.panel.ClearRoute()
		s.panel.ShowSelection("", "")
	case waypoint.OriginSet:
		s.waypoints = append(s.waypoints, s.surface.AddMarker(ports.MarkerWaypoint, ev.Point, "origin"))
		s.panel.ShowSelection(ev.Point.Label(), "")
	case waypoint.DestinationSet:
		s.waypoints = append(s.waypoints, s.surface.AddMarker(ports.MarkerWaypoint, ev.Point, "destination"))
		if origin, ok := s.store.State().Origin(); ok {
			s.panel.ShowSelection(origin.Label(), ev.Point.Label())
		}
	case waypoint.SelectionComplete:
		s.dispatch(ctx, ev.Pair)
	}
}

func (s *Session) dispatch(ctx context.Context, pair domain.Pair) {
	s.generation++
	gen := s.generation
	s.pending++

	s.logger.DebugContext(ctx, "dispatching route request",
		slog.Uint64("generation", gen),
		slog.String("origin", pair.Origin.String()),
		slog.String("destination", pair.Destination.String()),
		slog.String("strategy", string(s.cfg.Strategy)))

	reqCtx, done := s.scope(ctx)
	results := s.orch.RequestAsync(reqCtx, s.cfg.Strategy, pair, s.cfg.Mode)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer done()
		var out services.RouteOutcome
		select {
		case o, ok := <-results:
			if !ok {
				return
			}
			out = o
		case <-reqCtx.Done():
			return
		}
		select {
		case s.completions <- Completion{Generation: gen, Outcome: out}:
		case <-reqCtx.Done():
		}
	}()
}

// Pending reports how many dispatched route requests and report fetches
// have not been applied yet.
func (s *Session) Pending() int { return s.pending + s.pendingReports }

// Await blocks for the next route or report completion and applies it.
func (s *Session) Await(ctx context.Context) (Result, error) {
	select {
	case c := <-s.completions:
		return s.Complete(ctx, c), nil
	case c := <-s.reports:
		return s.CompleteReport(ctx, c), nil
	case <-ctx.Done():
		return Discarded, ctx.Err()
	}
}

// Complete applies c unless a newer selection has replaced the one it was
// requested for.
func (s *Session) Complete(ctx context.Context, c Completion) Result {
	if s.pending > 0 {
		s.pending--
	}

	pair, live := s.store.Pair()
	if c.Generation != s.generation || !live || pair != c.Outcome.Pair {
		err := domain.NewError(domain.KindStaleRequest, domain.SideSession, "selection changed before the response arrived", nil)
		s.logger.DebugContext(ctx, "discarding route response",
			slog.Uint64("generation", c.Generation),
			slog.Uint64("current", s.generation),
			slog.Any("error", err))
		return Discarded
	}

	out := c.Outcome
	if !out.OK() {
		s.logger.WarnContext(ctx, "route request failed",
			slog.String("kind", string(out.Kind())),
			slog.Any("error", out.Err))
		s.Reset(ctx)
		s.panel.ShowError(out.Message())
		return Failed
	}

	rendered := s.pipeline.Render(*out.Route)
	s.panel.ShowRoute(rendered.Panel)
	if out.Trip != nil {
		s.panel.ShowTrip(*out.Trip)
	}
	return Rendered
}

// TapManeuver opens the info bubble for the n-th maneuver marker (1-based).
func (s *Session) TapManeuver(n int) bool {
	markers := s.pipeline.Maneuvers()
	if n < 1 || n > len(markers) {
		return false
	}
	return s.pipeline.TapManeuver(markers[n-1])
}

// Report starts fetching the trip history for view. The fetch runs in the
// background; its result reaches view through Await or Run. A newer Report
// call supersedes an older one. The selection is never touched.
func (s *Session) Report(ctx context.Context, view ports.ReportView) {
	if s.report == nil {
		err := domain.NewError(domain.KindInternal, domain.SideBackend, "no trip backend configured", nil)
		view.ShowError(services.UserMessage(err))
		return
	}

	s.reportSeq++
	seq := s.reportSeq
	s.pendingReports++
	s.logger.DebugContext(ctx, "fetching trip report", slog.Uint64("seq", seq))

	reqCtx, done := s.scope(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer done()
		out := s.report.Fetch(reqCtx)
		select {
		case s.reports <- ReportCompletion{Seq: seq, View: view, Outcome: out}:
		case <-reqCtx.Done():
		}
	}()
}

// CompleteReport shows c in its view unless a later Report call replaced it.
func (s *Session) CompleteReport(ctx context.Context, c ReportCompletion) Result {
	if s.pendingReports > 0 {
		s.pendingReports--
	}

	if c.Seq != s.reportSeq {
		err := domain.NewError(domain.KindStaleRequest, domain.SideBackend, "a newer report was requested", nil)
		s.logger.DebugContext(ctx, "discarding report",
			slog.Uint64("seq", c.Seq),
			slog.Uint64("current", s.reportSeq),
			slog.Any("error", err))
		return Discarded
	}

	s.report.Apply(ctx, c.Outcome, c.View)
	if !c.Outcome.OK() {
		return Failed
	}
	return Rendered
}

// Input is one user action for Run.
type Input struct {
	Pick     *domain.Point
	Maneuver int
	Report   ports.ReportView
	Reset    bool
}

// Run processes inputs and completions serially. It returns when ctx is done,
// or once inputs is closed and every dispatched request and report fetch has
// been applied.
// After each step it calls changed, when set.
func (s *Session) Run(ctx context.Context, inputs <-chan Input, changed func()) error {
	notify := func() {
		if changed != nil {
			changed()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-s.completions:
			s.Complete(ctx, c)
			notify()
			if inputs == nil && s.Pending() == 0 {
				return nil
			}
		case c := <-s.reports:
			s.CompleteReport(ctx, c)
			notify()
			if inputs == nil && s.Pending() == 0 {
				return nil
			}
		case in, ok := <-inputs:
			if !ok {
				if s.Pending() == 0 {
					return nil
				}
				inputs = nil
				continue
			}
			switch {
			case in.Pick != nil:
				s.Pick(ctx, *in.Pick)
			case in.Maneuver > 0:
				if !s.TapManeuver(in.Maneuver) {
					s.logger.InfoContext(ctx, "no such maneuver", slog.Int("n", in.Maneuver))
				}
			case in.Report != nil:
				s.Report(ctx, in.Report)
			case in.Reset:
				s.Reset(ctx)
			}
			notify()
		}
	}
}
