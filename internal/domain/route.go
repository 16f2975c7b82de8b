package domain

import (
	"strings"
	"time"
)

type TransportMode string

const (
	ModeCar        TransportMode = "car"
	ModeTruck      TransportMode = "truck"
	ModeTaxi       TransportMode = "taxi"
	ModeBus        TransportMode = "bus"
	ModePrivateBus TransportMode = "privateBus"
	ModePedestrian TransportMode = "pedestrian"
	ModeBicycle    TransportMode = "bicycle"
	ModeScooter    TransportMode = "scooter"
)

func (m TransportMode) Valid() bool {
	switch m {
	case ModeCar, ModeTruck, ModeTaxi, ModeBus, ModePrivateBus, ModePedestrian, ModeBicycle, ModeScooter:
		return true
	}
	return false
}

var (
	// Fields the client asks for when it renders the route itself.
	DefaultReturnFields = []string{"polyline", "turnByTurnActions", "actions", "instructions", "travelSummary"}
	// Fields the trip logger needs to cost a trip.
	BackendReturnFields = []string{"polyline", "summary", "actions", "instructions"}
)

// RouteRequest is built fresh for every dispatch and never mutated afterwards.
type RouteRequest struct {
	Origin        Point
	Destination   Point
	TransportMode TransportMode
	Language      string
	ReturnFields  []string
}

func NewRouteRequest(pair Pair, mode TransportMode, language string, fields []string) RouteRequest {
	return RouteRequest{
		Origin:        pair.Origin,
		Destination:   pair.Destination,
		TransportMode: mode,
		Language:      language,
		ReturnFields:  append([]string(nil), fields...),
	}
}

// Return joins the requested response fields for the router's "return" parameter.
func (r RouteRequest) Return() string {
	return strings.Join(r.ReturnFields, ",")
}

type Route struct {
	ID       string
	Sections []Section
}

// RouteResponse holds the sections of the first route returned by the router.
type RouteResponse struct {
	Sections []Section
}

// Section is one leg of a computed route.
type Section struct {
	ID                string
	Type              string
	Polyline          string
	Actions           []Maneuver
	TurnByTurnActions []RoadSegment
	TravelSummary     Summary
	Departure         Stop
	Arrival           Stop
	Transport         string
}

type Maneuver struct {
	Offset      int
	Instruction string
	Action      string
	// Nil when the router sends no direction for the action.
	Direction *string
	Length    float64
	Duration  float64
}

type RoadSegment struct {
	Action      string
	CurrentRoad Road
	NextRoad    Road
}

type LocalizedName struct {
	Value    string
	Language string
}

type Road struct {
	Names []LocalizedName
}

// Name returns the first localized name, or "" for unnamed roads.
func (r Road) Name() string {
	if len(r.Names) == 0 {
		return ""
	}
	return r.Names[0].Value
}

// Length in meters, duration in seconds.
type Summary struct {
	Length   float64
	Duration float64
}

type Stop struct {
	Time     time.Time
	Location Point
}
