package metrics

import "github.com/prometheus/client_golang/prometheus"

// Chat session Prometheus metrics.
var (
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chat_sessions_active",
			Help:      "Chat sessions currently held in memory",
		},
	)

	DocumentsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Processed PDF uploads by outcome",
		},
		[]string{"status"},
	)

	DocumentChunks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_chunks",
			Help:      "Number of chunks indexed per processed document",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_queries_total",
			Help:      "Chat questions answered by outcome and origin",
		},
		[]string{"origin", "status"}, // origin: typed / preset
	)
)
