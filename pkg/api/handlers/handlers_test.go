package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/linkfs/pkg/adapter/ftp"
	"github.com/marmos91/linkfs/pkg/transport"
)

type fakeEngine struct{ st ftp.Status }

func (f fakeEngine) Status() ftp.Status { return f.st }

type fakeLinks []transport.LinkStats

func (f fakeLinks) Stats() []transport.LinkStats { return f }

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) Response {
	t.Helper()
	var raw struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.Response
}

func TestLiveness(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler(nil, nil).Liveness(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var data map[string]string
	resp := decode(t, w, &data)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "linkfs", data["service"])
}

func TestReadiness(t *testing.T) {
	link := fakeLinks{{Name: "udp0", Type: "udp"}}

	tests := []struct {
		name    string
		engine  EngineSource
		links   LinkSource
		code    int
		wantErr string
	}{
		{"NoEngine", nil, link, http.StatusServiceUnavailable, "ftp engine not initialized"},
		{"Disabled", fakeEngine{ftp.Status{Enabled: false}}, link, http.StatusServiceUnavailable, "ftp engine disabled"},
		{"NoLinks", fakeEngine{ftp.Status{Enabled: true}}, fakeLinks{}, http.StatusServiceUnavailable, "no links configured"},
		{"NilLinks", fakeEngine{ftp.Status{Enabled: true}}, nil, http.StatusServiceUnavailable, "no links configured"},
		{"Ready", fakeEngine{ftp.Status{Enabled: true, QueueDepth: 2}}, link, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewHealthHandler(tt.engine, tt.links).Readiness(w, httptest.NewRequest("GET", "/health/ready", nil))

			assert.Equal(t, tt.code, w.Code)
			resp := decode(t, w, nil)
			assert.Equal(t, tt.wantErr, resp.Error)
			if tt.wantErr == "" {
				assert.Equal(t, "healthy", resp.Status)
			} else {
				assert.Equal(t, "unhealthy", resp.Status)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	engine := fakeEngine{ftp.Status{Enabled: true, Open: true, Mode: "read", Session: 0, Path: "/logs/1.bin", Requests: 7}}
	links := fakeLinks{
		{Name: "udp0", Channel: 0, Type: "udp", FramesIn: 3},
		{Name: "radio", Channel: 1, Type: "serial", TxSpace: 80},
	}
	h := NewStatusHandler(Instance{ID: "abc", Version: "1.2.3", StartTime: time.Now().Add(-time.Minute)}, engine, links)

	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest("GET", "/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var data StatusResponse
	resp := decode(t, w, &data)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "abc", data.InstanceID)
	assert.Equal(t, "1.2.3", data.Version)
	assert.Equal(t, "1m0s", data.Uptime)
	assert.True(t, data.FTP.Open)
	assert.Equal(t, "/logs/1.bin", data.FTP.Path)
	assert.Equal(t, uint64(7), data.FTP.Requests)
	require.Len(t, data.Links, 2)
	assert.Equal(t, "radio", data.Links[1].Name)
	assert.Equal(t, 80, data.Links[1].TxSpace)
}

func TestStatusWithoutSources(t *testing.T) {
	w := httptest.NewRecorder()
	NewStatusHandler(Instance{ID: "x"}, nil, nil).Get(w, httptest.NewRequest("GET", "/status", nil))

	var data StatusResponse
	decode(t, w, &data)
	assert.Equal(t, "x", data.InstanceID)
	assert.Empty(t, data.Links)
	assert.False(t, data.FTP.Enabled)
}
