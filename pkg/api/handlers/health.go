// Package handlers implements the HTTP endpoints of the status API.
package handlers

import (
	"net/http"

	"github.com/marmos91/linkfs/pkg/adapter/ftp"
	"github.com/marmos91/linkfs/pkg/transport"
)

// EngineSource exposes the file transfer engine's state.
type EngineSource interface {
	Status() ftp.Status
}

// LinkSource exposes per-link counters.
type LinkSource interface {
	Stats() []transport.LinkStats
}

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Is the engine running with at least one link?
type HealthHandler struct {
	engine EngineSource
	links  LinkSource
}

// NewHealthHandler creates a new health handler. Either source may be nil,
// in which case readiness reports unhealthy.
func NewHealthHandler(engine EngineSource, links LinkSource) *HealthHandler {
	return &HealthHandler{engine: engine, links: links}
}

// Liveness handles GET /health.
//
// Returns 200 OK as long as the HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "linkfs",
	}))
}

// Readiness handles GET /health/ready.
//
// Returns 503 Service Unavailable when the engine is missing or disabled, or
// when no link is attached.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("ftp engine not initialized"))
		return
	}
	st := h.engine.Status()
	if !st.Enabled {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("ftp engine disabled"))
		return
	}

	var links []transport.LinkStats
	if h.links != nil {
		links = h.links.Stats()
	}
	if len(links) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no links configured"))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"links":       len(links),
		"queue_depth": st.QueueDepth,
	}))
}
