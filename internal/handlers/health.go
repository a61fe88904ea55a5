// internal/handlers/health.go
package handlers

import (
	"context"
	"net/http"
	"time"
)

type healthResponse struct {
	Status            string `json:"status"`
	Service           string `json:"service"`
	Timestamp         string `json:"timestamp,omitempty"`
	Error             string `json:"error,omitempty"`
	ActiveConnections *int   `json:"active_connections,omitempty"`
}

// HealthHandler reports service liveness by probing the backing store. A
// reachable store yields 200 with a timestamp; anything else is a 500 with
// the probe error, so orchestrators see storage failures directly.
func HealthHandler(service string, ping func(context.Context) error) http.HandlerFunc {
	return healthHandlerExtra(service, ping, nil)
}

// HealthHandlerWithConnections additionally reports live WebSocket
// connections, the way the chat service always has.
func HealthHandlerWithConnections(service string, ping func(context.Context) error, activeConns func() int) http.HandlerFunc {
	return healthHandlerExtra(service, ping, activeConns)
}

func healthHandlerExtra(service string, ping func(context.Context) error, activeConns func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := ping(ctx); err != nil {
			writeJSON(w, http.StatusInternalServerError, healthResponse{
				Status:  "ERROR",
				Service: service,
				Error:   err.Error(),
			})
			return
		}

		resp := healthResponse{
			Status:    "OK",
			Service:   service,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if activeConns != nil {
			n := activeConns()
			resp.ActiveConnections = &n
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
