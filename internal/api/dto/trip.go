package dto

import (
	"time"
	"trip-route-service/internal/domain"
)

type CalculateRouteRequest struct {
	Origin        string `json:"origin" validate:"required"`
	Destination   string `json:"destination" validate:"required"`
	TransportMode string `json:"transportMode" validate:"required"`
}

// TripResponse is the wire form of a logged trip. Fields are pointers so a
// client can tell a missing field from a zero value.
type TripResponse struct {
	Origin        *string    `json:"origin" validate:"required"`
	Destination   *string    `json:"destination" validate:"required"`
	Distance      *float64   `json:"distance" validate:"required"`
	FuelUsed      *float64   `json:"fuel_used" validate:"required"`
	DepartureTime *time.Time `json:"departure_time" validate:"required"`
	ArrivalTime   *time.Time `json:"arrival_time" validate:"required"`
	TransportMode string     `json:"transportMode"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

type ReportResponse struct {
	Report *[]TripResponse `json:"report" validate:"required"`
}

func NewTripResponse(rec domain.TripRecord) TripResponse {
	res := TripResponse{
		Origin:        &rec.Origin,
		Destination:   &rec.Destination,
		Distance:      &rec.Distance,
		FuelUsed:      &rec.FuelUsed,
		DepartureTime: &rec.DepartureTime,
		ArrivalTime:   &rec.ArrivalTime,
		TransportMode: rec.TransportMode,
	}
	if !rec.CreatedAt.IsZero() {
		res.CreatedAt = &rec.CreatedAt
	}
	return res
}

func NewReportResponse(report domain.Report) ReportResponse {
	entries := make([]TripResponse, 0, len(report))
	for _, rec := range report {
		entries = append(entries, NewTripResponse(rec))
	}
	return ReportResponse{Report: &entries}
}

// Record converts a validated response back into a domain record. Nil
// optional fields stay zero.
func (t TripResponse) Record() domain.TripRecord {
	rec := domain.TripRecord{TransportMode: t.TransportMode}
	if t.Origin != nil {
		rec.Origin = *t.Origin
	}
	if t.Destination != nil {
		rec.Destination = *t.Destination
	}
	if t.Distance != nil {
		rec.Distance = *t.Distance
	}
	if t.FuelUsed != nil {
		rec.FuelUsed = *t.FuelUsed
	}
	if t.DepartureTime != nil {
		rec.DepartureTime = *t.DepartureTime
	}
	if t.ArrivalTime != nil {
		rec.ArrivalTime = *t.ArrivalTime
	}
	if t.CreatedAt != nil {
		rec.CreatedAt = *t.CreatedAt
	}
	return rec
}
