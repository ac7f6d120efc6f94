package prometheus

import (
	"time"

	"github.com/marmos91/linkfs/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ftpMetrics is the Prometheus implementation of metrics.FTPMetrics.
type ftpMetrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	queueDrops   prometheus.Counter
	queueDepth   prometheus.Gauge
	retransmits  prometheus.Counter
	burstPackets prometheus.Histogram
	burstBytes   prometheus.Counter
	bytes        *prometheus.CounterVec
	openFile     prometheus.Gauge
	takeovers    prometheus.Counter
}

// NewFTPMetrics creates a Prometheus-backed FTPMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewFTPMetrics() metrics.FTPMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &ftpMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkfs_ftp_requests_total",
				Help: "Total number of FTP requests by opcode and result",
			},
			[]string{"opcode", "result"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "linkfs_ftp_request_duration_milliseconds",
				Help: "Duration of FTP request handling including reply delivery",
				Buckets: []float64{
					0.1,   // metadata ops on a local disk
					0.5,   // 500us
					1,     // 1ms
					5,     // 5ms
					20,    // 20ms - backoff while the link drains
					100,   // 100ms
					500,   // 500ms
					2000,  // 2s - paced bursts
					10000, // 10s
				},
			},
			[]string{"opcode"},
		),
		queueDrops: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "linkfs_ftp_queue_drops_total",
			Help: "Requests dropped because the request queue was full",
		}),
		queueDepth: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "linkfs_ftp_queue_depth",
			Help: "Requests waiting for the FTP worker",
		}),
		retransmits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "linkfs_ftp_retransmits_total",
			Help: "Cached replies resent for duplicate requests",
		}),
		burstPackets: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "linkfs_ftp_burst_packets",
			Help:    "Packets sent per burst read",
			Buckets: []float64{1, 5, 10, 50, 100, 250, 500},
		}),
		burstBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "linkfs_ftp_burst_bytes_total",
			Help: "File bytes sent by burst reads",
		}),
		bytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkfs_ftp_bytes_total",
				Help: "File bytes moved by ReadFile and WriteFile",
			},
			[]string{"direction"},
		),
		openFile: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "linkfs_ftp_open_file",
			Help: "1 while the engine holds an open file",
		}),
		takeovers: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "linkfs_ftp_session_takeovers_total",
			Help: "Idle sessions force-closed by a different session",
		}),
	}
}

func (m *ftpMetrics) RecordRequest(opcode, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(opcode, result).Inc()
	m.duration.WithLabelValues(opcode).Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *ftpMetrics) RecordQueueDrop() {
	if m == nil {
		return
	}
	m.queueDrops.Inc()
}

func (m *ftpMetrics) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

func (m *ftpMetrics) RecordRetransmit() {
	if m == nil {
		return
	}
	m.retransmits.Inc()
}

func (m *ftpMetrics) RecordBurst(packets int, bytes uint64) {
	if m == nil {
		return
	}
	m.burstPackets.Observe(float64(packets))
	m.burstBytes.Add(float64(bytes))
}

func (m *ftpMetrics) RecordBytes(direction string, bytes uint64) {
	if m == nil {
		return
	}
	m.bytes.WithLabelValues(direction).Add(float64(bytes))
}

func (m *ftpMetrics) SetOpenFile(open bool) {
	if m == nil {
		return
	}
	if open {
		m.openFile.Set(1)
	} else {
		m.openFile.Set(0)
	}
}

func (m *ftpMetrics) RecordSessionTakeover() {
	if m == nil {
		return
	}
	m.takeovers.Inc()
}
