// Package backend is the client side of the trip-logging service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"trip-route-service/internal/api/dto"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/httpx"
	"trip-route-service/internal/platform/obs"

	"github.com/go-playground/validator/v10"
)

// Client implements ports.TripBackend over HTTP.
type Client struct {
	http     *httpx.Client
	baseURL  string
	validate *validator.Validate
}

func NewClient(baseURL string, client *httpx.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend base url is empty")
	}
	if client == nil {
		client = httpx.NewClient(10 * time.Second)
	}
	return &Client{
		http:     client,
		baseURL:  baseURL,
		validate: validator.New(),
	}, nil
}

// LogTrip posts the trip once; the call is not idempotent so it is never retried.
func (c *Client) LogTrip(ctx context.Context, req domain.TripRequest) (_ domain.TripRecord, err error) {
	defer obs.Time(ctx, "backend.LogTrip")(&err)

	payload, err := json.Marshal(req)
	if err != nil {
		return domain.TripRecord{}, fmt.Errorf("encode trip request: %w", err)
	}

	httpReq, err := c.http.NewRequest(ctx, http.MethodPost, c.baseURL+"/calculateRoute", bytes.NewReader(payload))
	if err != nil {
		return domain.TripRecord{}, domain.NewError(domain.KindInternal, domain.SideBackend, "log trip", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.TripRecord{}, httpx.Classify(domain.SideBackend, "log trip", err)
	}
	defer resp.Body.Close()

	var body dto.TripResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.TripRecord{}, httpx.Malformed(domain.SideBackend, "log trip", err)
	}
	if err := c.validate.Struct(body); err != nil {
		return domain.TripRecord{}, httpx.Malformed(domain.SideBackend, "log trip", err)
	}

	rec := body.Record()
	if rec.TransportMode == "" {
		rec.TransportMode = string(req.TransportMode)
	}
	return rec, nil
}

func (c *Client) ListTrips(ctx context.Context) (_ domain.Report, err error) {
	defer obs.Time(ctx, "backend.ListTrips")(&err)

	resp, err := c.http.DoWithRetry(ctx, func() (*http.Request, error) {
		return c.http.NewRequest(ctx, http.MethodGet, c.baseURL+"/report", nil)
	})
	if err != nil {
		return nil, httpx.Classify(domain.SideBackend, "list trips", err)
	}
	defer resp.Body.Close()

	var body dto.ReportResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, httpx.Malformed(domain.SideBackend, "list trips", err)
	}
	if err := c.validate.Struct(body); err != nil {
		return nil, httpx.Malformed(domain.SideBackend, "list trips", err)
	}

	report := make(domain.Report, 0, len(*body.Report))
	for _, entry := range *body.Report {
		report = append(report, entry.Record())
	}
	return report, nil
}
