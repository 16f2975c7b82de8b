// Package render draws a route response on a MapSurface and builds the
// directions panel content.
package render

import (
	"log/slog"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"

	"github.com/paulmach/orb"
)

// RenderedRoute reports what one Render call put on the map.
type RenderedRoute struct {
	Polylines []ports.PolylineID
	Markers   []ports.MarkerID
	// Union of every drawn section. Zero when nothing was drawn.
	Bounds orb.Bound
	// Maneuvers skipped because their offset fell outside the decoded geometry.
	Unplaceable int
	// Sections whose polyline could not be decoded.
	Undecodable int
	Panel       ports.Panel
}

type maneuverMarker struct {
	at          domain.Point
	instruction string
}

// Pipeline owns the maneuver markers, the route lines and the single info
// bubble on its surface. Nothing else may touch them. Not safe for
// concurrent use.
type Pipeline struct {
	surface ports.MapSurface
	decoder ports.GeometryDecoder
	logger  *slog.Logger

	lines     []ports.PolylineID
	maneuvers map[ports.MarkerID]maneuverMarker
	order     []ports.MarkerID

	bubble    ports.BubbleID
	hasBubble bool
}

func NewPipeline(surface ports.MapSurface, decoder ports.GeometryDecoder, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		surface:   surface,
		decoder:   decoder,
		logger:    logger.With(slog.String("component", "render")),
		maneuvers: make(map[ports.MarkerID]maneuverMarker),
	}
}

// Render replaces the previous route with resp. Bad sections and maneuvers
// are logged and skipped; the rest of the route is still drawn.
func (p *Pipeline) Render(resp domain.RouteResponse) RenderedRoute {
	p.Clear()

	var out RenderedRoute
	var bounds orb.Bound
	drawn := false

	for i, sec := range resp.Sections {
		flat, err := p.decoder.Decode(sec.Polyline)
		if err != nil {
			p.logger.Warn("skipping section with undecodable polyline",
				slog.Int("section", i), slog.String("section_id", sec.ID), slog.Any("error", err))
			out.Undecodable++
			continue
		}

		points := toPoints(flat)
		if len(points) > 0 {
			id := p.surface.DrawPolyline(points)
			p.lines = append(p.lines, id)
			out.Polylines = append(out.Polylines, id)

			b := boundOf(points)
			if drawn {
				bounds = bounds.Union(b)
			} else {
				bounds, drawn = b, true
			}
		}

		for j, m := range sec.Actions {
			at, ok := pointAt(flat, m.Offset)
			if !ok {
				err := domain.NewError(domain.KindUnplaceableManeuver, domain.SideRender, "offset outside decoded geometry", nil)
				p.logger.Warn("skipping maneuver",
					slog.Int("section", i), slog.Int("action", j),
					slog.Int("offset", m.Offset), slog.Int("points", len(points)),
					slog.Any("error", err))
				out.Unplaceable++
				continue
			}

			id := p.surface.AddMarker(ports.MarkerManeuver, at, m.Instruction)
			p.maneuvers[id] = maneuverMarker{at: at, instruction: m.Instruction}
			p.order = append(p.order, id)
			out.Markers = append(out.Markers, id)
		}
	}

	if drawn {
		p.surface.FitBounds(bounds)
		out.Bounds = bounds
	}
	out.Panel = BuildPanel(resp)
	return out
}

// TapManeuver centers the map on the tapped maneuver and shows its
// instruction in the shared bubble, opening it on first use. It reports
// false for markers the pipeline does not own.
func (p *Pipeline) TapManeuver(id ports.MarkerID) bool {
	m, ok := p.maneuvers[id]
	if !ok {
		return false
	}

	p.surface.SetCenter(m.at)
	if p.hasBubble {
		p.surface.UpdateBubble(p.bubble, m.at, m.instruction)
	} else {
		p.bubble = p.surface.OpenBubble(m.at, m.instruction)
		p.hasBubble = true
	}
	return true
}

// Maneuvers returns the live maneuver markers in placement order.
func (p *Pipeline) Maneuvers() []ports.MarkerID {
	return append([]ports.MarkerID(nil), p.order...)
}

// Clear removes the maneuver markers and route lines. The bubble stays.
func (p *Pipeline) Clear() {
	for _, id := range p.order {
		p.surface.RemoveMarker(id)
	}
	for _, id := range p.lines {
		p.surface.RemovePolyline(id)
	}
	p.order = nil
	p.lines = nil
	clear(p.maneuvers)
}

// toPoints drops the altitude slot of each lat, lng, alt triple.
func toPoints(flat []float64) []domain.Point {
	points := make([]domain.Point, 0, len(flat)/3)
	for i := 0; i+2 < len(flat); i += 3 {
		points = append(points, domain.Point{Lat: flat[i], Lng: flat[i+1]})
	}
	return points
}

// pointAt resolves a maneuver offset, which indexes points rather than slots.
func pointAt(flat []float64, offset int) (domain.Point, bool) {
	if offset < 0 || offset*3+2 >= len(flat) {
		return domain.Point{}, false
	}
	return domain.Point{Lat: flat[offset*3], Lng: flat[offset*3+1]}, true
}

func boundOf(points []domain.Point) orb.Bound {
	mp := make(orb.MultiPoint, 0, len(points))
	for _, pt := range points {
		mp = append(mp, orb.Point{pt.Lng, pt.Lat})
	}
	return mp.Bound()
}
