// Package metrics defines the Prometheus collectors for the devotional
// pipeline and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "devotional"

type Metrics struct {
	Reflections      *prometheus.CounterVec
	StageErrors      *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	SearchResults    prometheus.Histogram
	SynthesizedBytes prometheus.Counter
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	IntakeRequests   *prometheus.CounterVec
	registry         *prometheus.Registry
}

// New registers every collector on a fresh registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := newMetrics(reg)
	m.registry = reg
	return m
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Reflections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reflections_total",
			Help:      "Devotionals generated, by input kind (text, voice, note).",
		}, []string{"input"}),
		StageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Pipeline failures by stage.",
		}, []string{"stage"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Latency of each pipeline stage in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		SearchResults: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Related notes found per search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		}),
		SynthesizedBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesized_audio_bytes_total",
			Help:      "Bytes of WAV audio produced by narration.",
		}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_cache_hits_total",
			Help:      "Narrations served from the audio cache.",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_cache_misses_total",
			Help:      "Narrations that had to be synthesized.",
		}),
		IntakeRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intake_requests_total",
			Help:      "HTTP intake requests by endpoint and status code.",
		}, []string{"endpoint", "code"}),
	}
}

// Handler returns an HTTP handler serving this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Stage records the outcome of one pipeline stage.
func (m *Metrics) Stage(stage string, seconds float64, err error) {
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
	if err != nil {
		m.StageErrors.WithLabelValues(stage).Inc()
	}
}
