package ports

import (
	"time"
	"trip-route-service/internal/domain"
)

// A single step-list entry of the directions panel.
type Step struct {
	IconClass   string
	Instruction string
}

type TripSummary struct {
	DistanceMeters  float64
	DurationSeconds float64
	Duration        string
}

// Panel is the structured content of the directions panel.
type Panel struct {
	Waypoints string
	Steps     []Step
	Summary   TripSummary
}

// PanelView is the UI side of the directions panel.
type PanelView interface {
	ShowSelection(origin, destination string)
	ShowRoute(p Panel)
	ShowTrip(rec domain.TripRecord)
	ShowError(msg string)
	ClearRoute()
}

// One ordinal-numbered block of the trip report.
type ReportEntry struct {
	Ordinal       int
	Distance      float64
	TransportMode string
	FuelUsed      string
	CreatedAt     string
	Raw           time.Time
}

type ReportView interface {
	Clear()
	Append(e ReportEntry)
	ShowError(msg string)
}
