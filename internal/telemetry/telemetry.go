// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for the ml-service.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "ml-service"

// Metrics holds all ml-service Prometheus metrics.
type Metrics struct {
	PredictionsTotal   prometheus.Counter
	PredictionsFailed  prometheus.Counter
	PredictionDuration prometheus.Histogram
	AnomalyFlagged     prometheus.Counter
	CategoryTotal      *prometheus.CounterVec
	BatchSize          prometheus.Histogram
	HistoryWriteErrors prometheus.Counter
}

// Provider wraps the telemetry handles handed to the rest of the service.
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// NewProvider initializes telemetry with Prometheus metrics.
func NewProvider() *Provider {
	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: initMetrics(),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	return &Metrics{
		PredictionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ml_predictions_total",
			Help: "Total number of prediction requests processed.",
		}),
		PredictionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ml_predictions_failed_total",
			Help: "Total number of prediction requests that failed.",
		}),
		PredictionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ml_prediction_duration_seconds",
			Help:    "Time spent in the prediction pipeline.",
			Buckets: prometheus.DefBuckets,
		}),
		AnomalyFlagged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ml_anomaly_flagged_total",
			Help: "Predictions whose likely-fake score crossed 0.5.",
		}),
		CategoryTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ml_dominant_category_total",
			Help: "Dominant category distribution of predictions.",
		}, []string{"category"}),
		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ml_batch_size",
			Help:    "Size of batch prediction requests.",
			Buckets: []float64{1, 5, 10, 25, 50, 100},
		}),
		HistoryWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ml_history_write_errors_total",
			Help: "Failed prediction history inserts.",
		}),
	}
}
