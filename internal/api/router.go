package api

import (
	"log/slog"
	"net/http"
	"trip-route-service/internal/api/handlers"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(trips handlers.TripService, checks map[string]handlers.Check, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	tripHandler := &handlers.TripHandler{Trips: trips, Logger: logger}
	healthHandler := &handlers.HealthHandler{Checks: checks}

	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/calculateRoute", tripHandler.CalculateRoute)
	mux.HandleFunc("/report", tripHandler.Report)

	return requestIDMiddleware(loggingMiddleware(logger, corsMiddleware(mux)))
}
