package appstate

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

type statusResponse struct {
	Status
	Uptime    string  `json:"uptime"`
	UptimeSec float64 `json:"uptimeSeconds"`
}

// HandleHealthz returns an http.HandlerFunc for the /-/healthz endpoint
func HandleHealthz(
	logger *slog.Logger,
	appState healthChecker,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logger.With("traceID", middleware.GetReqID(ctx))

		if !appState.IsHealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			logger.DebugContext(ctx, "health check failed")

			return
		}

		w.WriteHeader(http.StatusOK)
		logger.DebugContext(ctx, "health check passed")
	}
}

// HandleReadyz returns an http.HandlerFunc for the /-/readyz endpoint
func HandleReadyz(
	logger *slog.Logger,
	appState readyChecker,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logger.With("traceID", middleware.GetReqID(ctx))

		if !appState.IsReady() {
			w.WriteHeader(http.StatusServiceUnavailable)
			logger.DebugContext(ctx, "readiness check failed")

			return
		}

		w.WriteHeader(http.StatusOK)
		logger.DebugContext(ctx, "readiness check passed")
	}
}

// HandleStatus returns an http.HandlerFunc for the /-/status endpoint
func HandleStatus(
	logger *slog.Logger,
	appState statusGetter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logger.With("traceID", middleware.GetReqID(ctx))

		status := appState.StatusQuery()

		response := statusResponse{
			Status:    status,
			Uptime:    status.Uptime.String(),
			UptimeSec: status.Uptime.Seconds(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.ErrorContext(ctx, "failed to encode status response",
				"error", err,
			)

			return
		}

		logger.DebugContext(ctx, "status response sent",
			"state", string(status.State),
			"components", len(status.Components),
		)
	}
}
