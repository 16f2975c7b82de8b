package routing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/obs"

	"golang.org/x/net/html"
	maps "googlemaps.github.io/maps"
)

// GoogleRouter implements RoutingService with the Google Directions API.
// Each leg becomes one section; step polylines are joined into a single
// encoded leg polyline so maneuver offsets index into it.
type GoogleRouter struct {
	client *maps.Client
}

func NewGoogleRouter(apiKey string, httpClient *http.Client, opts ...maps.ClientOption) (*GoogleRouter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google maps api key is empty")
	}

	options := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if httpClient != nil {
		options = append(options, maps.WithHTTPClient(httpClient))
	}
	options = append(options, opts...)

	client, err := maps.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("maps.NewClient: %w", err)
	}
	return &GoogleRouter{client: client}, nil
}

func (g *GoogleRouter) CalculateRoute(ctx context.Context, req domain.RouteRequest) (_ []domain.Route, err error) {
	defer obs.Time(ctx, "google.CalculateRoute")(&err)

	if !req.TransportMode.Valid() {
		return nil, domain.NewError(domain.KindInvalidRequest, domain.SideRouting,
			fmt.Sprintf("unsupported transport mode %q", req.TransportMode), nil)
	}

	dr := &maps.DirectionsRequest{
		Origin:      req.Origin.String(),
		Destination: req.Destination.String(),
		Mode:        googleMode(req.TransportMode),
		Language:    req.Language,
	}

	routes, _, err := g.client.Directions(ctx, dr)
	if err != nil {
		return nil, domain.NewError(domain.KindNetwork, domain.SideRouting, "directions request failed", err)
	}

	out := make([]domain.Route, 0, len(routes))
	for i, rt := range routes {
		route := domain.Route{ID: fmt.Sprintf("google-%d", i+1)}
		for j, leg := range rt.Legs {
			sec, err := legToSection(leg, req.TransportMode)
			if err != nil {
				return nil, domain.NewError(domain.KindMalformedResponse, domain.SideRouting,
					fmt.Sprintf("route %d leg %d", i, j), err)
			}
			sec.ID = fmt.Sprintf("%s-leg-%d", route.ID, j+1)
			route.Sections = append(route.Sections, sec)
		}
		out = append(out, route)
	}
	return out, nil
}

func googleMode(m domain.TransportMode) maps.Mode {
	switch m {
	case domain.ModePedestrian:
		return maps.TravelModeWalking
	case domain.ModeBicycle:
		return maps.TravelModeBicycling
	default:
		return maps.TravelModeDriving
	}
}

func legToSection(leg *maps.Leg, mode domain.TransportMode) (domain.Section, error) {
	if leg == nil {
		return domain.Section{}, errors.New("empty leg")
	}

	var path []maps.LatLng
	var actions []domain.Maneuver

	for i, step := range leg.Steps {
		pts, err := maps.DecodePolyline(step.Polyline.Points)
		if err != nil {
			return domain.Section{}, fmt.Errorf("step %d polyline: %w", i, err)
		}
		offset := len(path)
		// Consecutive steps share their junction point.
		if offset > 0 && len(pts) > 0 && path[offset-1] == pts[0] {
			pts = pts[1:]
			offset--
		}

		action := "continue"
		if i == 0 {
			action = "depart"
			offset = 0
		}

		actions = append(actions, domain.Maneuver{
			Offset:      offset,
			Instruction: stripHTML(step.HTMLInstructions),
			Action:      action,
			Length:      float64(step.Distance.Meters),
			Duration:    step.Duration.Seconds(),
		})
		path = append(path, pts...)
	}

	if len(path) > 0 {
		actions = append(actions, domain.Maneuver{
			Offset:      len(path) - 1,
			Instruction: strings.TrimSpace("Arrive at " + leg.EndAddress),
			Action:      "arrive",
		})
	}

	return domain.Section{
		Type:     "vehicle",
		Polyline: maps.Encode(path),
		Actions:  actions,
		TurnByTurnActions: []domain.RoadSegment{
			{Action: "depart", NextRoad: namedRoad(leg.StartAddress)},
			{Action: "arrive", CurrentRoad: namedRoad(leg.EndAddress)},
		},
		TravelSummary: domain.Summary{
			Length:   float64(leg.Distance.Meters),
			Duration: leg.Duration.Seconds(),
		},
		Departure: domain.Stop{
			Time:     leg.DepartureTime,
			Location: domain.Point{Lat: leg.StartLocation.Lat, Lng: leg.StartLocation.Lng},
		},
		Arrival: domain.Stop{
			Time:     leg.ArrivalTime,
			Location: domain.Point{Lat: leg.EndLocation.Lat, Lng: leg.EndLocation.Lng},
		},
		Transport: string(mode),
	}, nil
}

func namedRoad(name string) domain.Road {
	if name == "" {
		return domain.Road{}
	}
	return domain.Road{Names: []domain.LocalizedName{{Value: name}}}
}

// stripHTML drops markup from Directions instructions. Tags act as word
// breaks and entities are decoded by the tokenizer.
func stripHTML(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		default:
			b.WriteByte(' ')
		}
	}
}

// GoogleDecoder decodes Google encoded polylines into flat lat, lng, 0 triples.
type GoogleDecoder struct{}

func (GoogleDecoder) Decode(encoded string) ([]float64, error) {
	pts, err := maps.DecodePolyline(encoded)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(pts)*3)
	for _, p := range pts {
		out = append(out, p.Lat, p.Lng, 0)
	}
	return out, nil
}
