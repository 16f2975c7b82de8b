package services

import (
	"context"
	"sync"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"
)

type fakeBackend struct {
	mu       sync.Mutex
	trip     domain.TripRecord
	tripErr  error
	report   domain.Report
	listErr  error
	requests []domain.TripRequest
}

func (b *fakeBackend) LogTrip(ctx context.Context, req domain.TripRequest) (domain.TripRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)
	return b.trip, b.tripErr
}

func (b *fakeBackend) ListTrips(ctx context.Context) (domain.Report, error) {
	return b.report, b.listErr
}

type routerFunc func(ctx context.Context, req domain.RouteRequest) ([]domain.Route, error)

func (f routerFunc) CalculateRoute(ctx context.Context, req domain.RouteRequest) ([]domain.Route, error) {
	return f(ctx, req)
}

type memoryRepo struct {
	saved []domain.TripRecord
	err   error
}

func (r *memoryRepo) Save(ctx context.Context, rec domain.TripRecord) (domain.TripRecord, error) {
	if r.err != nil {
		return domain.TripRecord{}, r.err
	}
	rec.ID = "trip-1"
	r.saved = append(r.saved, rec)
	return rec, nil
}

func (r *memoryRepo) List(ctx context.Context) (domain.Report, error) {
	return append(domain.Report(nil), r.saved...), r.err
}

type recordingReportView struct {
	entries []ports.ReportEntry
	errors  []string
	clears  int
}

func (v *recordingReportView) Clear() {
	v.clears++
	v.entries = nil
}

func (v *recordingReportView) Append(e ports.ReportEntry) { v.entries = append(v.entries, e) }

func (v *recordingReportView) ShowError(msg string) { v.errors = append(v.errors, msg) }
