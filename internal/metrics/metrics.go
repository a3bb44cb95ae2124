package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP request metrics for API server
var (
	// HTTPRequestDuration tracks the duration of HTTP requests
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method, path, and status",
			Buckets: prometheus.DefBuckets, // Default: .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsTotal counts the total number of HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsInFlight tracks requests currently being served
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// Estimator metrics
var (
	// EstimatesTotal counts completed estimates by kind and fit outcome
	EstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vram_estimates_total",
			Help: "Total number of completed estimates by kind (inference, finetune) and whether the configuration fit",
		},
		[]string{"kind", "fit"},
	)

	// EstimateDuration tracks how long estimate computation takes
	EstimateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vram_estimate_duration_seconds",
			Help:    "Duration of estimate computation by kind",
			Buckets: prometheus.ExponentialBuckets(0.000001, 10, 6), // 1µs to 100ms
		},
		[]string{"kind"},
	)

	// EstimateValidationFailures counts estimate requests rejected by validation
	EstimateValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vram_estimate_validation_failures_total",
			Help: "Total number of estimate requests rejected by validation, by kind",
		},
		[]string{"kind"},
	)

	// SuggestionsReturned tracks how many alternatives accompany a non-fitting estimate
	SuggestionsReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vram_suggestions_returned",
			Help:    "Number of alternative configurations suggested for non-fitting estimates, by kind",
			Buckets: prometheus.LinearBuckets(0, 1, 8), // 0 to 7 suggestions
		},
		[]string{"kind"},
	)

	// ModelPresetsRegistered tracks the number of model presets currently loaded
	ModelPresetsRegistered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vram_model_presets_registered",
			Help: "Number of model presets currently registered in the catalog",
		},
	)
)

// Helper functions for common metric operations

// RecordHTTPRequest records the duration and increments the counter for an HTTP request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordEstimate records a completed estimate with its fit outcome and suggestion count
func RecordEstimate(kind string, fits bool, suggestions int, duration time.Duration) {
	EstimatesTotal.WithLabelValues(kind, strconv.FormatBool(fits)).Inc()
	EstimateDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if !fits {
		SuggestionsReturned.WithLabelValues(kind).Observe(float64(suggestions))
	}
}

// RecordValidationFailure increments the validation failure counter
func RecordValidationFailure(kind string) {
	EstimateValidationFailures.WithLabelValues(kind).Inc()
}

// SetModelPresets sets the registered model presets gauge
func SetModelPresets(count int) {
	ModelPresetsRegistered.Set(float64(count))
}
