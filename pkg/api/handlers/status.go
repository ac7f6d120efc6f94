package handlers

import (
	"net/http"
	"time"

	"github.com/marmos91/linkfs/pkg/adapter/ftp"
	"github.com/marmos91/linkfs/pkg/transport"
)

// Instance identifies the running daemon.
type Instance struct {
	ID        string
	Version   string
	StartTime time.Time
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	InstanceID string                `json:"instance_id"`
	Version    string                `json:"version"`
	Uptime     string                `json:"uptime"`
	FTP        ftp.Status            `json:"ftp"`
	Links      []transport.LinkStats `json:"links"`
}

// StatusHandler reports the session snapshot and link counters.
type StatusHandler struct {
	instance Instance
	engine   EngineSource
	links    LinkSource
}

func NewStatusHandler(instance Instance, engine EngineSource, links LinkSource) *StatusHandler {
	if instance.StartTime.IsZero() {
		instance.StartTime = time.Now()
	}
	return &StatusHandler{instance: instance, engine: engine, links: links}
}

// Get handles GET /status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		InstanceID: h.instance.ID,
		Version:    h.instance.Version,
		Uptime:     time.Since(h.instance.StartTime).Round(time.Second).String(),
		Links:      []transport.LinkStats{},
	}
	if h.engine != nil {
		resp.FTP = h.engine.Status()
	}
	if h.links != nil {
		resp.Links = h.links.Stats()
	}
	writeJSON(w, http.StatusOK, okResponse(resp))
}
