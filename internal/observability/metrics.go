package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "photohub",
		Name:      "face_search_requests_total",
		Help:      "Face search requests by outcome reason",
	}, []string{"outcome"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "photohub",
		Name:      "face_search_duration_seconds",
		Help:      "End-to-end duration of face search requests",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	SearchMatches = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "photohub",
		Name:      "face_search_matches",
		Help:      "Number of matches returned per successful search",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
	})

	EmbeddingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "photohub",
		Name:      "embedding_request_duration_seconds",
		Help:      "Duration of calls to the embedding service",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"status"})

	AuditAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "photohub",
		Name:      "audit_alerts_total",
		Help:      "Audit alert publish attempts by result",
	}, []string{"result"})

	IndexTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "photohub",
		Name:      "index_tasks_total",
		Help:      "Image indexing tasks processed by result",
	}, []string{"result"})

	IndexQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "photohub",
		Name:      "index_queue_depth",
		Help:      "Number of pending image indexing tasks",
	})

	RetentionDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "photohub",
		Name:      "retention_images_deleted_total",
		Help:      "Images removed by the retention sweeper",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "photohub",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "photohub",
		Name:      "ws_connections",
		Help:      "Number of active audit feed WebSocket connections",
	})
)
