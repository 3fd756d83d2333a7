package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Uploads            *prometheus.CounterVec
	ExtractionDuration *prometheus.HistogramVec
	ExtractionFailures *prometheus.CounterVec
	FormFills          *prometheus.CounterVec
	FormFillDuration   prometheus.Histogram
	SessionsDeleted    prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on the given registerer. Tests pass a fresh
// registry so fixtures do not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docauto_uploads_total",
			Help: "Document uploads by document type and extraction method.",
		}, []string{"document", "method"}),
		ExtractionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docauto_extraction_duration_seconds",
			Help:    "Time spent extracting a document.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"document"}),
		ExtractionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docauto_extraction_failures_total",
			Help: "Extractions that produced no usable data.",
		}, []string{"document"}),
		FormFills: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docauto_form_fills_total",
			Help: "Browser form-fill attempts by outcome.",
		}, []string{"outcome"}),
		FormFillDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "docauto_form_fill_duration_seconds",
			Help:    "End to end duration of a browser form fill.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		SessionsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "docauto_sessions_deleted_total",
			Help: "Sessions removed via the delete endpoint.",
		}),
	}
}

// ObserveExtraction records one finished extraction attempt.
func (m *Metrics) ObserveExtraction(document, method string, start time.Time, failed bool) {
	m.Uploads.WithLabelValues(document, method).Inc()
	m.ExtractionDuration.WithLabelValues(document).Observe(time.Since(start).Seconds())
	if failed {
		m.ExtractionFailures.WithLabelValues(document).Inc()
	}
}

// ObserveFormFill records one form-fill attempt.
func (m *Metrics) ObserveFormFill(start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.FormFills.WithLabelValues(outcome).Inc()
	m.FormFillDuration.Observe(time.Since(start).Seconds())
}
