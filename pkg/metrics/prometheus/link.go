package prometheus

import (
	"github.com/marmos91/linkfs/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// linkMetrics is the Prometheus implementation of metrics.LinkMetrics.
type linkMetrics struct {
	frames      *prometheus.CounterVec
	frameBytes  *prometheus.CounterVec
	frameErrors *prometheus.CounterVec
	ignored     *prometheus.CounterVec
	txDrops     *prometheus.CounterVec
}

// NewLinkMetrics creates a Prometheus-backed LinkMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewLinkMetrics() metrics.LinkMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &linkMetrics{
		frames: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkfs_link_frames_total",
				Help: "Frames sent and received per link",
			},
			[]string{"link", "direction"}, // direction: "tx", "rx"
		),
		frameBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkfs_link_bytes_total",
				Help: "Framed bytes sent and received per link",
			},
			[]string{"link", "direction"},
		),
		frameErrors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkfs_link_frame_errors_total",
				Help: "Corrupt frames and failed writes per link and reason",
			},
			[]string{"link", "reason"},
		),
		ignored: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkfs_link_frames_ignored_total",
				Help: "Valid frames not addressed to the FTP engine",
			},
			[]string{"link", "kind"}, // kind: "unknown", "v1", "signed"
		),
		txDrops: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkfs_link_tx_drops_total",
				Help: "Frames dropped because the transmit queue was full",
			},
			[]string{"link"},
		),
	}
}

func (m *linkMetrics) RecordFrame(link, direction string, bytes int) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(link, direction).Inc()
	m.frameBytes.WithLabelValues(link, direction).Add(float64(bytes))
}

func (m *linkMetrics) RecordFrameError(link, reason string) {
	if m == nil {
		return
	}
	m.frameErrors.WithLabelValues(link, reason).Inc()
}

func (m *linkMetrics) RecordFrameIgnored(link, kind string) {
	if m == nil {
		return
	}
	m.ignored.WithLabelValues(link, kind).Inc()
}

func (m *linkMetrics) RecordTxDrop(link string) {
	if m == nil {
		return
	}
	m.txDrops.WithLabelValues(link).Inc()
}
