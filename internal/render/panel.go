package render

import (
	"math"
	"strconv"
	"strings"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"
)

const waypointSeparator = " - "

// WaypointSummary names each section by the road it starts onto and the road
// it ends on, e.g. "A - B - C - D" for two sections.
func WaypointSummary(resp domain.RouteResponse) string {
	names := make([]string, 0, len(resp.Sections)*2)
	for _, sec := range resp.Sections {
		tbt := sec.TurnByTurnActions
		if len(tbt) == 0 {
			continue
		}
		names = append(names, tbt[0].NextRoad.Name(), tbt[len(tbt)-1].CurrentRoad.Name())
	}
	return strings.Join(names, waypointSeparator)
}

// StepList flattens every section's actions in order.
func StepList(resp domain.RouteResponse) []ports.Step {
	var steps []ports.Step
	for _, sec := range resp.Sections {
		for _, m := range sec.Actions {
			direction := ""
			if m.Direction != nil {
				direction = *m.Direction
			}
			steps = append(steps, ports.Step{
				IconClass:   "arrow " + direction + m.Action,
				Instruction: m.Instruction,
			})
		}
	}
	return steps
}

func TripSummary(resp domain.RouteResponse) ports.TripSummary {
	var s ports.TripSummary
	for _, sec := range resp.Sections {
		s.DistanceMeters += sec.TravelSummary.Length
		s.DurationSeconds += sec.TravelSummary.Duration
	}
	s.Duration = FormatDuration(s.DurationSeconds)
	return s
}

// FormatDuration floors hours and minutes and keeps the seconds remainder as is.
func FormatDuration(seconds float64) string {
	hours := math.Floor(seconds / 3600)
	minutes := math.Floor(math.Mod(seconds, 3600) / 60)
	rest := math.Mod(seconds, 60)

	return strconv.FormatFloat(hours, 'f', -1, 64) + " hours " +
		strconv.FormatFloat(minutes, 'f', -1, 64) + " minutes " +
		strconv.FormatFloat(rest, 'f', -1, 64) + " seconds"
}

func BuildPanel(resp domain.RouteResponse) ports.Panel {
	return ports.Panel{
		Waypoints: WaypointSummary(resp),
		Steps:     StepList(resp),
		Summary:   TripSummary(resp),
	}
}
