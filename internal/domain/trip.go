package domain

import "time"

// TripRequest is the body the backend-mediated strategy posts to the trip service.
type TripRequest struct {
	Origin        string        `json:"origin"`
	Destination   string        `json:"destination"`
	TransportMode TransportMode `json:"transportMode"`
}

// TripRecord is one logged route request with its cost metrics.
// Distance is in meters, FuelUsed in liters.
type TripRecord struct {
	ID            string
	Origin        string
	Destination   string
	Distance      float64
	FuelUsed      float64
	DepartureTime time.Time
	ArrivalTime   time.Time
	CreatedAt     time.Time
	TransportMode string
}

// Report is the server-ordered trip history. Clients never re-sort it.
type Report []TripRecord
