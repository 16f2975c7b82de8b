package routing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/httpx"
)

const hereFixture = `{
  "routes": [{
    "id": "r-1",
    "sections": [{
      "id": "s-1",
      "type": "vehicle",
      "polyline": "BFoz5xJ67i1B1B7PzIhaxL7Y",
      "actions": [
        {"action": "depart", "duration": 30, "length": 200, "instruction": "Head north on Rudaki Ave.", "offset": 0},
        {"action": "turn", "duration": 60, "length": 400, "instruction": "Turn left onto Ismoili Somoni St.", "offset": 2, "direction": "left"},
        {"action": "arrive", "duration": 0, "length": 0, "instruction": "Arrive at your destination.", "offset": 3}
      ],
      "turnByTurnActions": [
        {"action": "depart", "nextRoad": {"name": [{"value": "Rudaki Ave", "language": "ru"}]}},
        {"action": "arrive", "currentRoad": {"name": [{"value": "Ismoili Somoni St", "language": "ru"}]}}
      ],
      "travelSummary": {"length": 600, "duration": 90},
      "departure": {"time": "2024-05-01T10:00:00+05:00", "place": {"location": {"lat": 38.5884, "lng": 68.72361}}},
      "arrival": {"time": "2024-05-01T10:01:30+05:00", "place": {"location": {"lat": 38.57195, "lng": 68.78493}}},
      "transport": {"mode": "car"}
    }]
  }]
}`

func testPair() domain.Pair {
	return domain.Pair{
		Origin:      domain.Point{Lat: 38.5884, Lng: 68.72361},
		Destination: domain.Point{Lat: 38.57195, Lng: 68.78493},
	}
}

func newTestHereRouter(t *testing.T, url string) *HereRouter {
	t.Helper()
	r, err := NewHereRouter("secret", url, httpx.NewClient(time.Second).WithBackoff(time.Millisecond))
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return r
}

func TestHereRouterSendsQueryAndDecodesSections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/routes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		want := map[string]string{
			"origin":        "38.5884,68.72361",
			"destination":   "38.57195,68.78493",
			"transportMode": "car",
			"return":        "polyline,turnByTurnActions,actions,instructions,travelSummary",
			"lang":          "ru-ru",
			"apiKey":        "secret",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("query %s = %q, want %q", k, got, v)
			}
		}
		_, _ = io.WriteString(w, hereFixture)
	}))
	defer srv.Close()

	router := newTestHereRouter(t, srv.URL)
	req := domain.NewRouteRequest(testPair(), domain.ModeCar, "ru-ru", domain.DefaultReturnFields)

	routes, err := router.CalculateRoute(context.Background(), req)
	if err != nil {
		t.Fatalf("calculate route: %v", err)
	}
	if len(routes) != 1 || len(routes[0].Sections) != 1 {
		t.Fatalf("unexpected routes: %+v", routes)
	}

	sec := routes[0].Sections[0]
	if sec.Polyline != "BFoz5xJ67i1B1B7PzIhaxL7Y" {
		t.Fatalf("polyline = %q", sec.Polyline)
	}
	if len(sec.Actions) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(sec.Actions))
	}
	if sec.Actions[0].Direction != nil {
		t.Fatalf("missing direction should stay nil")
	}
	if d := sec.Actions[1].Direction; d == nil || *d != "left" {
		t.Fatalf("expected left direction, got %v", d)
	}
	if sec.Actions[1].Offset != 2 {
		t.Fatalf("offset = %d, want 2", sec.Actions[1].Offset)
	}
	if got := sec.TurnByTurnActions[0].NextRoad.Name(); got != "Rudaki Ave" {
		t.Fatalf("next road = %q", got)
	}
	if got := sec.TurnByTurnActions[1].CurrentRoad.Name(); got != "Ismoili Somoni St" {
		t.Fatalf("current road = %q", got)
	}
	if sec.TravelSummary != (domain.Summary{Length: 600, Duration: 90}) {
		t.Fatalf("summary = %+v", sec.TravelSummary)
	}
	if sec.Arrival.Time.Sub(sec.Departure.Time) != 90*time.Second {
		t.Fatalf("unexpected timing: %v -> %v", sec.Departure.Time, sec.Arrival.Time)
	}
	if sec.Departure.Location != testPair().Origin {
		t.Fatalf("departure location = %v", sec.Departure.Location)
	}
	if sec.Transport != "car" {
		t.Fatalf("transport = %q", sec.Transport)
	}
}

func TestHereRouterFallsBackToSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"routes":[{"id":"r","sections":[{"polyline":"BF","summary":{"length":1500,"duration":100}}]}]}`)
	}))
	defer srv.Close()

	req := domain.NewRouteRequest(testPair(), domain.ModeTruck, "", domain.BackendReturnFields)
	routes, err := newTestHereRouter(t, srv.URL).CalculateRoute(context.Background(), req)
	if err != nil {
		t.Fatalf("calculate route: %v", err)
	}
	if got := routes[0].Sections[0].TravelSummary.Length; got != 1500 {
		t.Fatalf("length = %v, want 1500", got)
	}
}

func TestHereRouterBodyWithoutRoutes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"notices":[{"title":"Route calculation failed: Couldn't find a route.","code":"noRouteFound"}]}`)
	}))
	defer srv.Close()

	req := domain.NewRouteRequest(testPair(), domain.ModeCar, "ru-ru", domain.DefaultReturnFields)
	routes, err := newTestHereRouter(t, srv.URL).CalculateRoute(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(routes) != 0 {
		t.Fatalf("expected no routes, got %d", len(routes))
	}
}

func TestHereRouterServerErrorIsNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"title":"Internal error"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	req := domain.NewRouteRequest(testPair(), domain.ModeCar, "ru-ru", domain.DefaultReturnFields)
	_, err := newTestHereRouter(t, srv.URL).CalculateRoute(context.Background(), req)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if domain.SideOf(err) != domain.SideRouting {
		t.Fatalf("side = %q", domain.SideOf(err))
	}
	if got := calls.Load(); got != 4 {
		t.Fatalf("expected 4 attempts, got %d", got)
	}
}

func TestHereRouterMalformedBody(t *testing.T) {
	cases := map[string]string{
		"not json":  `<html>`,
		"bad time":  `{"routes":[{"sections":[{"departure":{"time":"yesterday"}}]}]}`,
		"bad types": `{"routes":[{"sections":"nope"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			}))
			defer srv.Close()

			req := domain.NewRouteRequest(testPair(), domain.ModeCar, "ru-ru", domain.DefaultReturnFields)
			_, err := newTestHereRouter(t, srv.URL).CalculateRoute(context.Background(), req)
			if !errors.Is(err, domain.ErrMalformedResponse) {
				t.Fatalf("expected malformed response, got %v", err)
			}
		})
	}
}

func TestHereRouterRejectsUnknownMode(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	req := domain.NewRouteRequest(testPair(), domain.TransportMode("hovercraft"), "ru-ru", domain.DefaultReturnFields)
	_, err := newTestHereRouter(t, srv.URL).CalculateRoute(context.Background(), req)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("no request should be sent for an invalid mode")
	}
}

func TestNewHereRouterRequiresKey(t *testing.T) {
	if _, err := NewHereRouter(" ", "", nil); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}
