package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/rwhplan/internal/domain/assessment"
	"github.com/kailas-cloud/rwhplan/internal/domain/estimate"
)

// Prediction Prometheus metrics.
var (
	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Completed predictions by structure and feasibility",
		},
		[]string{"structure", "feasibility"},
	)

	LocationFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_fallbacks_total",
			Help:      "Location resolutions that used a fallback rule",
		},
		[]string{"kind"},
	)

	PredictionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_cache_total",
			Help:      "Prediction cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	EstimatorErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimator_errors_total",
			Help:      "Estimator invocation failures",
		},
		[]string{"estimator"},
	)

	ModelsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "models_loaded",
			Help:      "Number of estimators loaded at startup",
		},
	)
)

var predMetricsRegistered bool

// RegisterPredictionMetrics registers Prometheus prediction metrics. Must be called once from main.
func RegisterPredictionMetrics() {
	if predMetricsRegistered {
		return
	}
	prometheus.MustRegister(PredictionsTotal)
	prometheus.MustRegister(LocationFallbacksTotal)
	prometheus.MustRegister(PredictionCacheTotal)
	prometheus.MustRegister(EstimatorErrorsTotal)
	prometheus.MustRegister(ModelsLoaded)
	predMetricsRegistered = true
}

// Recorder reports pipeline outcomes to the prediction metrics.
type Recorder struct{}

// NewRecorder creates a Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// RecordPrediction counts a completed prediction.
func (*Recorder) RecordPrediction(structure estimate.StructureType, feasibility assessment.Feasibility) {
	PredictionsTotal.WithLabelValues(string(structure), string(feasibility)).Inc()
}

// RecordFallback counts a location fallback.
func (*Recorder) RecordFallback(kind string) {
	LocationFallbacksTotal.WithLabelValues(kind).Inc()
}

// RecordEstimatorError counts a failed estimator.
func (*Recorder) RecordEstimatorError(target string) {
	EstimatorErrorsTotal.WithLabelValues(target).Inc()
}
