package render

import (
	"fmt"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"

	"github.com/paulmach/orb"
)

type recordedBubble struct {
	at   domain.Point
	text string
}

type recordingSurface struct {
	next      int
	markers   map[ports.MarkerID]string
	polylines map[ports.PolylineID][]domain.Point
	fits      []orb.Bound
	centers   []domain.Point
	bubbles   map[ports.BubbleID]recordedBubble
	opened    int
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{
		markers:   make(map[ports.MarkerID]string),
		polylines: make(map[ports.PolylineID][]domain.Point),
		bubbles:   make(map[ports.BubbleID]recordedBubble),
	}
}

func (s *recordingSurface) id() int {
	s.next++
	return s.next
}

func (s *recordingSurface) AddMarker(kind ports.MarkerKind, at domain.Point, payload string) ports.MarkerID {
	id := ports.MarkerID(s.id())
	s.markers[id] = payload
	return id
}

func (s *recordingSurface) RemoveMarker(id ports.MarkerID) { delete(s.markers, id) }

func (s *recordingSurface) DrawPolyline(points []domain.Point) ports.PolylineID {
	id := ports.PolylineID(s.id())
	s.polylines[id] = points
	return id
}

func (s *recordingSurface) RemovePolyline(id ports.PolylineID) { delete(s.polylines, id) }

func (s *recordingSurface) FitBounds(b orb.Bound) { s.fits = append(s.fits, b) }

func (s *recordingSurface) SetCenter(at domain.Point) { s.centers = append(s.centers, at) }

func (s *recordingSurface) OpenBubble(at domain.Point, text string) ports.BubbleID {
	s.opened++
	id := ports.BubbleID(s.id())
	s.bubbles[id] = recordedBubble{at: at, text: text}
	return id
}

func (s *recordingSurface) UpdateBubble(id ports.BubbleID, at domain.Point, text string) {
	s.bubbles[id] = recordedBubble{at: at, text: text}
}

// tableDecoder decodes polylines from a fixed table.
type tableDecoder map[string][]float64

func (d tableDecoder) Decode(encoded string) ([]float64, error) {
	flat, ok := d[encoded]
	if !ok {
		return nil, fmt.Errorf("unknown polyline %q", encoded)
	}
	return flat, nil
}
