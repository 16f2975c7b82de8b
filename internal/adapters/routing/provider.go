package routing

import (
	"fmt"
	"net/http"
	"time"
	"trip-route-service/internal/adapters/flexpolyline"
	"trip-route-service/internal/config"
	"trip-route-service/internal/platform/httpx"
	"trip-route-service/internal/ports"
)

const (
	ProviderHere   = "here"
	ProviderGoogle = "google"
)

// FromConfig builds the router named by ROUTING_PROVIDER together with the
// decoder for the polylines it returns.
func FromConfig(cfg config.Config) (ports.RoutingService, ports.GeometryDecoder, error) {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	switch cfg.RoutingProvider {
	case ProviderHere, "":
		r, err := NewHereRouter(cfg.RoutingAPIKey, cfg.RoutingBaseURL, httpx.NewClient(timeout))
		if err != nil {
			return nil, nil, fmt.Errorf("routing: %w", err)
		}
		return r, flexpolyline.Decoder{}, nil
	case ProviderGoogle:
		r, err := NewGoogleRouter(cfg.GoogleMapsAPIKey, &http.Client{Timeout: timeout})
		if err != nil {
			return nil, nil, fmt.Errorf("routing: %w", err)
		}
		return r, GoogleDecoder{}, nil
	}
	return nil, nil, fmt.Errorf("routing: unknown provider %q", cfg.RoutingProvider)
}
