package metrics

import (
	"strconv"

	"FinSimples/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions   *prometheus.CounterVec
	providerFetch *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	stageLatency  *prometheus.HistogramVec
}

// New registers the recorder's collectors on the default registry.
func New() *Recorder {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the recorder's collectors on reg.
func NewWith(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsimples_predictions_total",
				Help: "Prediction calls by terminal status",
			},
			[]string{"status"},
		),
		providerFetch: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsimples_provider_fetch_total",
				Help: "Price history fetches by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsimples_http_cache_lookups_total",
				Help: "Response cache lookups by result",
			},
			[]string{"hit"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsimples_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		stageLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finsimples_operation_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction counts a finished prediction call.
func (r *Recorder) RecordPrediction(status models.Status) {
	r.predictions.WithLabelValues(status.String()).Inc()
}

// RecordProviderFetch counts a provider attempt.
func (r *Recorder) RecordProviderFetch(provider, outcome string) {
	r.providerFetch.WithLabelValues(provider, outcome).Inc()
}

// RecordCacheLookup counts a response cache lookup.
func (r *Recorder) RecordCacheLookup(hit bool) {
	r.cacheLookups.WithLabelValues(strconv.FormatBool(hit)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.stageLatency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordPrediction(models.Status)     {}
func (Nop) RecordProviderFetch(string, string) {}
func (Nop) RecordCacheLookup(bool)             {}
func (Nop) RecordError(string)                 {}
func (Nop) RecordLatency(string, float64)      {}
