// Package mapview is a headless MapSurface. It keeps the map objects in
// memory and exports them as GeoJSON.
package mapview

import (
	"sort"
	"sync"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type Marker struct {
	ID      ports.MarkerID
	Kind    ports.MarkerKind
	At      domain.Point
	Payload string
}

type Bubble struct {
	ID   ports.BubbleID
	At   domain.Point
	Text string
}

// Surface implements ports.MapSurface. It holds at most one bubble; opening
// another replaces it.
type Surface struct {
	mu        sync.Mutex
	nextID    int
	markers   map[ports.MarkerID]Marker
	polylines map[ports.PolylineID][]domain.Point
	center    domain.Point
	bounds    orb.Bound
	bubble    *Bubble
}

func NewSurface() *Surface {
	return &Surface{
		markers:   make(map[ports.MarkerID]Marker),
		polylines: make(map[ports.PolylineID][]domain.Point),
	}
}

func (s *Surface) newID() int {
	s.nextID++
	return s.nextID
}

func (s *Surface) AddMarker(kind ports.MarkerKind, at domain.Point, payload string) ports.MarkerID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ports.MarkerID(s.newID())
	s.markers[id] = Marker{ID: id, Kind: kind, At: at, Payload: payload}
	return id
}

func (s *Surface) RemoveMarker(id ports.MarkerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, id)
}

func (s *Surface) DrawPolyline(points []domain.Point) ports.PolylineID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ports.PolylineID(s.newID())
	s.polylines[id] = append([]domain.Point(nil), points...)
	return id
}

func (s *Surface) RemovePolyline(id ports.PolylineID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.polylines, id)
}

// FitBounds sets the view to b and centers on it.
func (s *Surface) FitBounds(b orb.Bound) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bounds = b
	c := b.Center()
	s.center = domain.Point{Lat: c.Lat(), Lng: c.Lon()}
}

func (s *Surface) SetCenter(at domain.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.center = at
}

func (s *Surface) OpenBubble(at domain.Point, text string) ports.BubbleID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ports.BubbleID(s.newID())
	s.bubble = &Bubble{ID: id, At: at, Text: text}
	return id
}

// UpdateBubble moves the bubble and replaces its text. Stale ids are ignored.
func (s *Surface) UpdateBubble(id ports.BubbleID, at domain.Point, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bubble == nil || s.bubble.ID != id {
		return
	}
	s.bubble.At = at
	s.bubble.Text = text
}

// Markers returns markers of kind in creation order. An empty kind matches all.
func (s *Surface) Markers(kind ports.MarkerKind) []Marker {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Marker, 0, len(s.markers))
	for _, m := range s.markers {
		if kind == "" || m.Kind == kind {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Surface) PolylineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.polylines)
}

func (s *Surface) Bubble() (Bubble, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bubble == nil {
		return Bubble{}, false
	}
	return *s.bubble, true
}

func (s *Surface) View() (center domain.Point, bounds orb.Bound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center, s.bounds
}

func toOrb(p domain.Point) orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// FeatureCollection exports markers, route lines and the bubble. Markers and
// the bubble become Point features, polylines become LineStrings.
func (s *Surface) FeatureCollection() *geojson.FeatureCollection {
	s.mu.Lock()
	defer s.mu.Unlock()

	fc := geojson.NewFeatureCollection()

	ids := make([]int, 0, len(s.polylines))
	for id := range s.polylines {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		points := s.polylines[ports.PolylineID(id)]
		ls := make(orb.LineString, 0, len(points))
		for _, p := range points {
			ls = append(ls, toOrb(p))
		}
		f := geojson.NewFeature(ls)
		f.ID = id
		f.Properties["kind"] = "route"
		fc.Append(f)
	}

	markers := make([]Marker, 0, len(s.markers))
	for _, m := range s.markers {
		markers = append(markers, m)
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].ID < markers[j].ID })
	for _, m := range markers {
		f := geojson.NewFeature(toOrb(m.At))
		f.ID = int(m.ID)
		f.Properties["kind"] = string(m.Kind)
		f.Properties["payload"] = m.Payload
		fc.Append(f)
	}

	if s.bubble != nil {
		f := geojson.NewFeature(toOrb(s.bubble.At))
		f.ID = int(s.bubble.ID)
		f.Properties["kind"] = "bubble"
		f.Properties["text"] = s.bubble.Text
		fc.Append(f)
	}

	if !s.bounds.IsZero() {
		fc.BBox = geojson.NewBBox(s.bounds)
	}
	return fc
}
