package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// HealthHandler answers liveness with the state of each named dependency.
type HealthHandler struct {
	Checks map[string]Check
}

// Health responds 200 when every check passes and 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	res := map[string]string{"status": "ok"}
	status := http.StatusOK
	for _, name := range names {
		if err := h.Checks[name](ctx); err != nil {
			slog.WarnContext(ctx, "health check failed", slog.String("check", name), slog.Any("error", err))
			res[name] = "down"
			res["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		res[name] = "ok"
	}

	writeJSON(w, r, status, res)
}
