package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextcv_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nextcv_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Operation metrics
	opRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextcv_op_requests_total",
			Help: "Total number of array operation requests",
		},
		[]string{"op", "status"}, // op: nms, invert, threshold, matvec
	)

	nmsInputBoxes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nextcv_nms_input_boxes",
			Help:    "Number of candidate boxes per NMS request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
	)

	nmsKeptBoxes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nextcv_nms_kept_boxes",
			Help:    "Number of boxes kept per NMS request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nextcv_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextcv_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
