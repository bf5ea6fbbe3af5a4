package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLM and fine-tune Prometheus metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of completion requests",
		},
		[]string{"provider", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
		[]string{"provider"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Total completion tokens reported by the provider",
		},
		[]string{"provider", "type"}, // "prompt" / "completion"
	)

	FineTuneIterationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finetune_iterations_total",
			Help:      "Fine-tune submissions by outcome",
		},
		[]string{"status"},
	)

	FineTuneIterationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "finetune_iteration_duration_seconds",
			Help:      "Duration of one fine-tune submission",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)
