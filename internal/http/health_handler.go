package httpapi

import (
	"context"
	"net/http"
	"time"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ConnState reports broker connectivity
type ConnState interface {
	IsConnected() bool
}

type HealthHandler struct {
	db     Pinger
	broker ConnState
}

// NewHealthHandler; broker may be nil
func NewHealthHandler(db Pinger, broker ConnState) *HealthHandler {
	return &HealthHandler{db: db, broker: broker}
}

// Health GET /health. 503 when the store does not answer; a broker outage is reported but not fatal.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]any{"status": "ok", "store": "up"}
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["store"] = "down"
			body["error"] = err.Error()
		}
	}
	if h.broker != nil {
		if h.broker.IsConnected() {
			body["broker"] = "up"
		} else {
			body["broker"] = "down"
		}
	}
	writeJSON(w, status, body)
}
