// Package panel renders the directions panel and the trip report as text.
package panel

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"
)

// TextPanel implements ports.PanelView. Each Show call replaces the
// corresponding block; String joins the current blocks.
type TextPanel struct {
	mu        sync.Mutex
	selection string
	route     string
	trip      string
	err       string
}

func NewTextPanel() *TextPanel { return &TextPanel{} }

func (p *TextPanel) ShowSelection(origin, destination string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.err = ""
	switch {
	case destination != "":
		p.selection = fmt.Sprintf("Origin: %s\nDestination: %s", origin, destination)
	case origin != "":
		p.selection = "Origin: " + origin
	default:
		p.selection = ""
	}
}

func (p *TextPanel) ShowRoute(panel ports.Panel) {
	var b strings.Builder
	if panel.Waypoints != "" {
		fmt.Fprintf(&b, "Route: %s\n", panel.Waypoints)
	}
	for i, s := range panel.Steps {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, s.IconClass, s.Instruction)
	}
	fmt.Fprintf(&b, "Distance: %s m.\nTime: %s", formatMeters(panel.Summary.DistanceMeters), panel.Summary.Duration)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = ""
	p.route = b.String()
}

func (p *TextPanel) ShowTrip(rec domain.TripRecord) {
	trip := fmt.Sprintf("Trip: %s -> %s\nDistance: %s m.\nFuel used: %s l\nDeparture: %s\nArrival: %s",
		rec.Origin, rec.Destination,
		formatMeters(rec.Distance),
		strconv.FormatFloat(rec.FuelUsed, 'f', 3, 64),
		rec.DepartureTime.Format("2006-01-02 15:04:05"),
		rec.ArrivalTime.Format("2006-01-02 15:04:05"),
	)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.trip = trip
}

func (p *TextPanel) ShowError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = msg
}

func (p *TextPanel) ClearRoute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.route = ""
	p.trip = ""
}

func (p *TextPanel) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	blocks := make([]string, 0, 4)
	for _, s := range []string{p.selection, p.route, p.trip} {
		if s != "" {
			blocks = append(blocks, s)
		}
	}
	if p.err != "" {
		blocks = append(blocks, "Error: "+p.err)
	}
	return strings.Join(blocks, "\n\n")
}

// WriteTo writes the panel followed by a newline.
func (p *TextPanel) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, p.String()+"\n")
	return int64(n), err
}

// TextReport implements ports.ReportView.
type TextReport struct {
	mu      sync.Mutex
	entries []ports.ReportEntry
	err     string
}

func NewTextReport() *TextReport { return &TextReport{} }

func (r *TextReport) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.err = ""
}

func (r *TextReport) Append(e ports.ReportEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *TextReport) ShowError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = msg
}

func (r *TextReport) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *TextReport) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	blocks := make([]string, 0, len(r.entries)+1)
	for _, e := range r.entries {
		blocks = append(blocks, fmt.Sprintf("#%d\nDistance: %s m.\nTransport: %s\nFuel used: %s l\nRegistered: %s",
			e.Ordinal, formatMeters(e.Distance), e.TransportMode, e.FuelUsed, e.CreatedAt))
	}
	if r.err != "" {
		blocks = append(blocks, "Error: "+r.err)
	}
	return strings.Join(blocks, "\n\n")
}

func (r *TextReport) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, r.String()+"\n")
	return int64(n), err
}

func formatMeters(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
