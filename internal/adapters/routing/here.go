package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/httpx"
	"trip-route-service/internal/platform/obs"
)

const DefaultHereBaseURL = "https://router.hereapi.com"

// HereRouter implements RoutingService using the HERE Routing v8 API.
//
// Transient failures (429, 5xx, network errors) are retried with exponential
// backoff. The router is safe for concurrent use.
type HereRouter struct {
	http    *httpx.Client
	apiKey  string
	baseURL string
}

func NewHereRouter(apiKey, baseURL string, client *httpx.Client) (*HereRouter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("HERE api key is empty")
	}
	if baseURL == "" {
		baseURL = DefaultHereBaseURL
	}
	if client == nil {
		client = httpx.NewClient(10 * time.Second)
	}

	return &HereRouter{
		http:    client,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (h *HereRouter) CalculateRoute(ctx context.Context, req domain.RouteRequest) (_ []domain.Route, err error) {
	defer obs.Time(ctx, "here.CalculateRoute")(&err)

	if !req.TransportMode.Valid() {
		return nil, domain.NewError(domain.KindInvalidRequest, domain.SideRouting,
			fmt.Sprintf("unsupported transport mode %q", req.TransportMode), nil)
	}

	endpoint := h.baseURL + "/v8/routes?" + h.query(req).Encode()

	resp, err := h.http.DoWithRetry(ctx, func() (*http.Request, error) {
		return h.http.NewRequest(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, httpx.Classify(domain.SideRouting, "calculate route", err)
	}
	defer resp.Body.Close()

	var body hereRoutesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, httpx.Malformed(domain.SideRouting, "calculate route", err)
	}

	routes, err := body.toDomain()
	if err != nil {
		return nil, httpx.Malformed(domain.SideRouting, "calculate route", err)
	}
	return routes, nil
}

func (h *HereRouter) query(req domain.RouteRequest) url.Values {
	q := url.Values{}
	q.Set("origin", req.Origin.String())
	q.Set("destination", req.Destination.String())
	q.Set("transportMode", string(req.TransportMode))
	if ret := req.Return(); ret != "" {
		q.Set("return", ret)
	}
	if req.Language != "" {
		q.Set("lang", req.Language)
	}
	q.Set("apiKey", h.apiKey)
	return q
}

type hereRoutesResponse struct {
	Routes []hereRoute `json:"routes"`
}

type hereRoute struct {
	ID       string        `json:"id"`
	Sections []hereSection `json:"sections"`
}

type hereSection struct {
	ID                string           `json:"id"`
	Type              string           `json:"type"`
	Polyline          string           `json:"polyline"`
	Actions           []hereAction     `json:"actions"`
	TurnByTurnActions []hereTurnAction `json:"turnByTurnActions"`
	TravelSummary     *hereSummary     `json:"travelSummary"`
	Summary           *hereSummary     `json:"summary"`
	Departure         herePlaceEvent   `json:"departure"`
	Arrival           herePlaceEvent   `json:"arrival"`
	Transport         struct {
		Mode string `json:"mode"`
	} `json:"transport"`
}

type hereAction struct {
	Action      string  `json:"action"`
	Duration    float64 `json:"duration"`
	Length      float64 `json:"length"`
	Instruction string  `json:"instruction"`
	Offset      int     `json:"offset"`
	Direction   *string `json:"direction"`
}

type hereTurnAction struct {
	Action      string   `json:"action"`
	CurrentRoad hereRoad `json:"currentRoad"`
	NextRoad    hereRoad `json:"nextRoad"`
}

type hereRoad struct {
	Name []struct {
		Value    string `json:"value"`
		Language string `json:"language"`
	} `json:"name"`
}

type hereSummary struct {
	Length   float64 `json:"length"`
	Duration float64 `json:"duration"`
}

type herePlaceEvent struct {
	Time  string `json:"time"`
	Place struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"place"`
}

func (r hereRoutesResponse) toDomain() ([]domain.Route, error) {
	out := make([]domain.Route, 0, len(r.Routes))
	for _, route := range r.Routes {
		sections := make([]domain.Section, 0, len(route.Sections))
		for i, s := range route.Sections {
			sec, err := s.toDomain()
			if err != nil {
				return nil, fmt.Errorf("route %q section %d: %w", route.ID, i, err)
			}
			sections = append(sections, sec)
		}
		out = append(out, domain.Route{ID: route.ID, Sections: sections})
	}
	return out, nil
}

func (s hereSection) toDomain() (domain.Section, error) {
	departure, err := s.Departure.toDomain()
	if err != nil {
		return domain.Section{}, fmt.Errorf("departure: %w", err)
	}
	arrival, err := s.Arrival.toDomain()
	if err != nil {
		return domain.Section{}, fmt.Errorf("arrival: %w", err)
	}

	summary := s.TravelSummary
	if summary == nil {
		summary = s.Summary
	}

	sec := domain.Section{
		ID:        s.ID,
		Type:      s.Type,
		Polyline:  s.Polyline,
		Departure: departure,
		Arrival:   arrival,
		Transport: s.Transport.Mode,
	}
	if summary != nil {
		sec.TravelSummary = domain.Summary{Length: summary.Length, Duration: summary.Duration}
	}

	for _, a := range s.Actions {
		sec.Actions = append(sec.Actions, domain.Maneuver{
			Offset:      a.Offset,
			Instruction: a.Instruction,
			Action:      a.Action,
			Direction:   a.Direction,
			Length:      a.Length,
			Duration:    a.Duration,
		})
	}
	for _, t := range s.TurnByTurnActions {
		sec.TurnByTurnActions = append(sec.TurnByTurnActions, domain.RoadSegment{
			Action:      t.Action,
			CurrentRoad: t.CurrentRoad.toDomain(),
			NextRoad:    t.NextRoad.toDomain(),
		})
	}
	return sec, nil
}

func (r hereRoad) toDomain() domain.Road {
	road := domain.Road{}
	for _, n := range r.Name {
		road.Names = append(road.Names, domain.LocalizedName{Value: n.Value, Language: n.Language})
	}
	return road
}

func (e herePlaceEvent) toDomain() (domain.Stop, error) {
	stop := domain.Stop{
		Location: domain.Point{Lat: e.Place.Location.Lat, Lng: e.Place.Location.Lng},
	}
	if e.Time == "" {
		return stop, nil
	}
	t, err := time.Parse(time.RFC3339, e.Time)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("parse time %q: %w", e.Time, err)
	}
	stop.Time = t
	return stop, nil
}
