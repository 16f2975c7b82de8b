package render

import (
	"testing"
	"trip-route-service/internal/domain"

	"github.com/paulmach/orb"
)

var decoder = tableDecoder{
	"west": {38.0, 68.0, 0, 38.1, 68.1, 0, 38.2, 68.2, 0},
	"east": {38.2, 68.2, 0, 38.5, 69.0, 0},
}

func dir(s string) *string { return &s }

func twoSections() domain.RouteResponse {
	return domain.RouteResponse{Sections: []domain.Section{
		{
			ID:       "s1",
			Polyline: "west",
			Actions: []domain.Maneuver{
				{Offset: 0, Action: "depart", Instruction: "Head east"},
				{Offset: 2, Action: "turn", Direction: dir("left"), Instruction: "Turn left"},
			},
		},
		{
			ID:       "s2",
			Polyline: "east",
			Actions: []domain.Maneuver{
				{Offset: 1, Action: "arrive", Instruction: "Arrive"},
			},
		},
	}}
}

func TestRenderDrawsEverySectionAndFitsOnce(t *testing.T) {
	surface := newRecordingSurface()
	p := NewPipeline(surface, decoder, nil)

	out := p.Render(twoSections())

	if len(surface.polylines) != 2 || len(out.Polylines) != 2 {
		t.Fatalf("expected 2 polylines, got %d", len(surface.polylines))
	}
	if len(surface.markers) != 3 || len(out.Markers) != 3 {
		t.Fatalf("expected 3 maneuver markers, got %d", len(surface.markers))
	}
	if len(surface.fits) != 1 {
		t.Fatalf("expected a single fit, got %d", len(surface.fits))
	}

	want := orb.Bound{Min: orb.Point{68.0, 38.0}, Max: orb.Point{69.0, 38.5}}
	if !surface.fits[0].Equal(want) {
		t.Fatalf("fit bounds = %v, want %v", surface.fits[0], want)
	}
}

func TestRenderClearsPreviousManeuvers(t *testing.T) {
	surface := newRecordingSurface()
	p := NewPipeline(surface, decoder, nil)

	p.Render(twoSections())
	p.Render(domain.RouteResponse{Sections: []domain.Section{twoSections().Sections[1]}})

	if len(surface.markers) != 1 {
		t.Fatalf("expected only the new route's marker, got %d", len(surface.markers))
	}
	if len(surface.polylines) != 1 {
		t.Fatalf("expected only the new route's polyline, got %d", len(surface.polylines))
	}
	if len(p.Maneuvers()) != 1 {
		t.Fatalf("pipeline tracks %d maneuvers", len(p.Maneuvers()))
	}

	p.Clear()
	if len(surface.markers) != 0 || len(surface.polylines) != 0 {
		t.Fatalf("clear left %d markers and %d polylines", len(surface.markers), len(surface.polylines))
	}
}

func TestRenderSkipsUnplaceableManeuvers(t *testing.T) {
	resp := twoSections()
	resp.Sections[0].Actions = append(resp.Sections[0].Actions,
		domain.Maneuver{Offset: 3, Instruction: "past the end"},
		domain.Maneuver{Offset: -1, Instruction: "negative"},
	)

	surface := newRecordingSurface()
	out := NewPipeline(surface, decoder, nil).Render(resp)

	if out.Unplaceable != 2 {
		t.Fatalf("unplaceable = %d, want 2", out.Unplaceable)
	}
	if len(surface.markers) != 3 {
		t.Fatalf("the placeable maneuvers must still be drawn, got %d", len(surface.markers))
	}
}

func TestRenderSkipsUndecodableSection(t *testing.T) {
	resp := twoSections()
	resp.Sections[0].Polyline = "garbage"

	surface := newRecordingSurface()
	out := NewPipeline(surface, decoder, nil).Render(resp)

	if out.Undecodable != 1 {
		t.Fatalf("undecodable = %d, want 1", out.Undecodable)
	}
	if len(surface.polylines) != 1 || len(surface.markers) != 1 {
		t.Fatalf("expected the second section only, got %d lines %d markers", len(surface.polylines), len(surface.markers))
	}
	if len(surface.fits) != 1 {
		t.Fatalf("expected a fit for the drawn section")
	}
}

func TestTapManeuverReusesSingleBubble(t *testing.T) {
	surface := newRecordingSurface()
	p := NewPipeline(surface, decoder, nil)
	out := p.Render(twoSections())

	if !p.TapManeuver(out.Markers[0]) {
		t.Fatalf("first tap should hit a maneuver")
	}
	if !p.TapManeuver(out.Markers[1]) {
		t.Fatalf("second tap should hit a maneuver")
	}

	if surface.opened != 1 || len(surface.bubbles) != 1 {
		t.Fatalf("expected one bubble, opened %d", surface.opened)
	}
	for _, b := range surface.bubbles {
		if b.text != "Turn left" || b.at != (domain.Point{Lat: 38.2, Lng: 68.2}) {
			t.Fatalf("bubble not moved to the second maneuver: %+v", b)
		}
	}
	if len(surface.centers) != 2 || surface.centers[1] != (domain.Point{Lat: 38.2, Lng: 68.2}) {
		t.Fatalf("map not re-centered: %v", surface.centers)
	}

	if p.TapManeuver(9999) {
		t.Fatalf("unknown marker must be ignored")
	}
}
