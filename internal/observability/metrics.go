package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xmapstream",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"app", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "xmapstream",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"app", "method", "path", "status"},
	)
	framesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xmapstream",
			Subsystem: "decode",
			Name:      "frames_total",
			Help:      "Frames decoded, by kind (header or match).",
		},
		[]string{"kind"},
	)
	framesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xmapstream",
			Subsystem: "decode",
			Name:      "frames_skipped_total",
			Help:      "Match frames skipped due to per-frame decode errors.",
		},
		[]string{"reason"},
	)
	bytesRead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "xmapstream",
			Subsystem: "decode",
			Name:      "bytes_read_total",
			Help:      "Raw bytes consumed from match streams.",
		},
	)
	streams = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xmapstream",
			Subsystem: "decode",
			Name:      "streams_total",
			Help:      "Streams finished, by outcome.",
		},
		[]string{"outcome"},
	)
	streamDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "xmapstream",
			Subsystem: "decode",
			Name:      "stream_duration_seconds",
			Help:      "Wall time from first read to end of stream.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			framesDecoded, framesSkipped, bytesRead,
			streams, streamDuration,
		)
	})
}

func RecordHTTPRequest(app, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(app, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(app, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordFrameDecoded(kind string) {
	RegisterMetrics()
	framesDecoded.WithLabelValues(kind).Inc()
}

func RecordFrameSkipped(reason string) {
	RegisterMetrics()
	framesSkipped.WithLabelValues(reason).Inc()
}

func RecordBytesRead(n int) {
	RegisterMetrics()
	bytesRead.Add(float64(n))
}

func RecordStream(outcome string, duration time.Duration) {
	RegisterMetrics()
	streams.WithLabelValues(outcome).Inc()
	streamDuration.Observe(duration.Seconds())
}
