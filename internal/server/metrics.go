package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chromaqr_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chromaqr_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Compose and generate metrics
	composeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chromaqr_compose_requests_total",
			Help: "Total number of compose, preview and generate requests",
		},
		[]string{"type", "status"}, // type: compose, preview, generate
	)

	// Scan metrics
	scanRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chromaqr_scan_requests_total",
			Help: "Total number of scan requests",
		},
		[]string{"type", "status"}, // type: still, frame; status: hit, miss, error
	)

	scanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chromaqr_scan_duration_seconds",
			Help:    "Detection duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"type"},
	)

	scanCodesDetected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chromaqr_scan_codes_detected",
			Help:    "Number of codes decoded per scan",
			Buckets: []float64{0, 1, 2, 3, 4, 6, 8},
		},
		[]string{"type"},
	)

	scanFramesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chromaqr_scan_frames_dropped_total",
			Help: "Live frames dropped because analysis was busy or suspended",
		},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chromaqr_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"scope"}, // scope: requests, upload
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chromaqr_upload_size_bytes",
			Help:    "Size of uploaded requests in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chromaqr_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chromaqr_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
