package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"trip-route-service/internal/api/dto"
	"trip-route-service/internal/domain"

	"github.com/go-playground/validator/v10"
)

// TripService is what the trip endpoints need from the service layer.
type TripService interface {
	CalculateRoute(ctx context.Context, req domain.TripRequest) (domain.TripRecord, error)
	Report(ctx context.Context) (domain.Report, error)
}

type TripHandler struct {
	Trips  TripService
	Logger *slog.Logger
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// CalculateRoute costs and logs one trip.
func (h *TripHandler) CalculateRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.CalculateRouteRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	req.Origin = strings.TrimSpace(req.Origin)
	req.Destination = strings.TrimSpace(req.Destination)
	req.TransportMode = strings.TrimSpace(req.TransportMode)
	if err := validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "origin, destination and transportMode are required")
		return
	}

	rec, err := h.Trips.CalculateRoute(r.Context(), domain.TripRequest{
		Origin:        req.Origin,
		Destination:   req.Destination,
		TransportMode: domain.TransportMode(req.TransportMode),
	})
	if err != nil {
		h.fail(w, r, "calculate route failed", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewTripResponse(rec))
}

// Report lists every logged trip, newest first.
func (h *TripHandler) Report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	report, err := h.Trips.Report(r.Context())
	if err != nil {
		h.fail(w, r, "list trips failed", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewReportResponse(report))
}

func (h *TripHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(r.Context(), msg, slog.Int("status", status), slog.Any("error", err))

	var de *domain.Error
	if status == http.StatusInternalServerError || !errors.As(err, &de) {
		writeError(w, r, status, "internal server error")
		return
	}
	writeError(w, r, status, de.Message)
}
