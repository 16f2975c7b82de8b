package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"trip-route-service/internal/api/handlers"
	"trip-route-service/internal/domain"
)

type fakeTrips struct {
	got    []domain.TripRequest
	rec    domain.TripRecord
	report domain.Report
	err    error
}

func (f *fakeTrips) CalculateRoute(ctx context.Context, req domain.TripRequest) (domain.TripRecord, error) {
	f.got = append(f.got, req)
	return f.rec, f.err
}

func (f *fakeTrips) Report(ctx context.Context) (domain.Report, error) {
	return f.report, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := NewRouter(&fakeTrips{}, nil, quietLogger())

	rec := serve(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("health = %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a request id header")
	}

	rec = serve(t, h, http.MethodPost, "/health", "")
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != http.MethodGet {
		t.Fatalf("POST /health = %d allow=%q", rec.Code, rec.Header().Get("Allow"))
	}
}

func TestCalculateRouteReturnsTrip(t *testing.T) {
	dep := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	trips := &fakeTrips{rec: domain.TripRecord{
		Origin:        "38.5884, 68.72361",
		Destination:   "38.57195, 68.78493",
		Distance:      3000,
		FuelUsed:      0.246,
		DepartureTime: dep,
		ArrivalTime:   dep.Add(5 * time.Minute),
		CreatedAt:     dep,
		TransportMode: "car",
	}}
	h := NewRouter(trips, nil, quietLogger())

	rec := serve(t, h, http.MethodPost, "/calculateRoute",
		`{"origin":"38.5884,68.72361","destination":"38.57195,68.78493","transportMode":"car"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"origin", "destination", "distance", "fuel_used", "departure_time", "arrival_time", "transportMode", "created_at"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %q: %s", key, rec.Body.String())
		}
	}
	if body["fuel_used"] != 0.246 {
		t.Fatalf("fuel_used = %v", body["fuel_used"])
	}

	if len(trips.got) != 1 || trips.got[0].TransportMode != domain.ModeCar || trips.got[0].Origin != "38.5884,68.72361" {
		t.Fatalf("service got %+v", trips.got)
	}
}

func TestCalculateRouteRejectsBadBodies(t *testing.T) {
	h := NewRouter(&fakeTrips{}, nil, quietLogger())

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"unknown field", `{"origin":"1,2","destination":"3,4","transportMode":"car","extra":1}`},
		{"two objects", `{"origin":"1,2","destination":"3,4","transportMode":"car"}{}`},
		{"missing mode", `{"origin":"1,2","destination":"3,4"}`},
		{"blank origin", `{"origin":"  ","destination":"3,4","transportMode":"car"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, h, http.MethodPost, "/calculateRoute", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body=%s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCalculateRouteMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
		msg  string
	}{
		{domain.NewError(domain.KindInvalidRequest, "", "invalid transport mode", nil), http.StatusBadRequest, "invalid transport mode"},
		{domain.NewError(domain.KindNetwork, domain.SideRouting, "calculate route: request failed", nil), http.StatusBadGateway, "calculate route: request failed"},
		{domain.NewError(domain.KindMalformedResponse, domain.SideRouting, "route has no sections", nil), http.StatusBadGateway, "route has no sections"},
		{errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		h := NewRouter(&fakeTrips{err: tc.err}, nil, quietLogger())
		rec := serve(t, h, http.MethodPost, "/calculateRoute", `{"origin":"1,2","destination":"3,4","transportMode":"car"}`)
		if rec.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
		var body map[string]string
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		if body["error"] != tc.msg {
			t.Errorf("%v: error = %q, want %q", tc.err, body["error"], tc.msg)
		}
	}
}

func TestReportKeepsServerOrder(t *testing.T) {
	newer := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-24 * time.Hour)
	h := NewRouter(&fakeTrips{report: domain.Report{
		{Origin: "a", Destination: "b", Distance: 2, CreatedAt: newer, TransportMode: "car"},
		{Origin: "c", Destination: "d", Distance: 1, CreatedAt: older, TransportMode: "truck"},
	}}, nil, quietLogger())

	rec := serve(t, h, http.MethodGet, "/report", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Report []struct {
			Origin        string  `json:"origin"`
			Distance      float64 `json:"distance"`
			TransportMode string  `json:"transportMode"`
		} `json:"report"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Report) != 2 || body.Report[0].Origin != "a" || body.Report[1].TransportMode != "truck" {
		t.Fatalf("report = %+v", body.Report)
	}
}

func TestEmptyReportIsAnEmptyList(t *testing.T) {
	h := NewRouter(&fakeTrips{}, nil, quietLogger())
	rec := serve(t, h, http.MethodGet, "/report", "")
	if got := strings.TrimSpace(rec.Body.String()); got != `{"report":[]}` {
		t.Fatalf("body = %s", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := NewRouter(&fakeTrips{}, nil, quietLogger())
	rec := serve(t, h, http.MethodOptions, "/calculateRoute", "")

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" ||
		rec.Header().Get("Access-Control-Allow-Methods") != "GET, POST" ||
		rec.Header().Get("Access-Control-Allow-Headers") != "Content-Type, Authorization" {
		t.Fatalf("unexpected CORS headers: %v", rec.Header())
	}
}

func TestHealthReportsFailingDependency(t *testing.T) {
	checks := map[string]handlers.Check{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}
	h := NewRouter(&fakeTrips{}, checks, quietLogger())

	rec := serve(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "degraded" || body["postgres"] != "ok" || body["redis"] != "down" {
		t.Fatalf("body = %v", body)
	}
}
