// Package metrics exposes Prometheus collectors for retrieval and the streaming relay.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RetrievalTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qassist_retrieval_total",
			Help: "Knowledge searches by outcome (hit, miss, fuzzy)",
		},
		[]string{"outcome"},
	)

	RetrievalResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qassist_retrieval_results_count",
			Help:    "Number of knowledge entries returned per search",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	RelayStreams = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qassist_relay_streams_total",
			Help: "Relay requests by outcome",
		},
		[]string{"outcome"},
	)

	RelayChunks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qassist_relay_chunks_total",
			Help: "Content frames forwarded to clients",
		},
	)

	RelayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qassist_relay_duration_seconds",
			Help:    "Relay stream duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"outcome"},
	)

	ProviderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qassist_provider_errors_total",
			Help: "Non-2xx responses from the completion provider by status code",
		},
		[]string{"status"},
	)

	KnowledgeReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qassist_knowledge_reloads_total",
			Help: "Knowledge snapshot reloads by status",
		},
		[]string{"status"},
	)
)

// Relay outcome labels.
const (
	OutcomeCompleted     = "completed"
	OutcomeClientGone    = "client_gone"
	OutcomeProviderError = "provider_error"
	OutcomeRejected      = "rejected"
	OutcomeFailed        = "failed"
)

var initOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RetrievalTotal)
		prometheus.MustRegister(RetrievalResults)
		prometheus.MustRegister(RelayStreams)
		prometheus.MustRegister(RelayChunks)
		prometheus.MustRegister(RelayDuration)
		prometheus.MustRegister(ProviderErrors)
		prometheus.MustRegister(KnowledgeReloads)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRetrieval records one search and how many entries it returned.
func ObserveRetrieval(results int, fuzzy bool) {
	RetrievalResults.Observe(float64(results))
	switch {
	case results == 0:
		RetrievalTotal.WithLabelValues("miss").Inc()
	case fuzzy:
		RetrievalTotal.WithLabelValues("fuzzy").Inc()
	default:
		RetrievalTotal.WithLabelValues("hit").Inc()
	}
}
