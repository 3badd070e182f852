// Package metrics holds the Prometheus collectors for the recommender.
// Collectors are registered on the default registry at init and served by promhttp.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation path
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"outcome"}, // success, invalid_input, unavailable, upstream_error, error
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Time spent scoring and ranking the catalog for one face",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	ShapeFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "face_shape_fallbacks_total",
			Help: "Classifier labels outside the known face shapes, replaced by the fallback shape",
		},
		[]string{"fallback"},
	)

	DetectedFaceShapes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detected_face_shapes_total",
			Help: "Resolved face shape per recommendation",
		},
		[]string{"face_shape"},
	)

	ModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommendation_model_loaded",
			Help: "1 when the scoring model artifact loaded successfully",
		},
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_items",
			Help: "Number of items in the loaded catalog",
		},
	)

	// Upstream classifier
	ClassifierRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_requests_total",
			Help: "Calls to the upstream face classifier by result",
		},
		[]string{"result"}, // success, failure, rejected
	)

	ClassifierDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classifier_request_duration_seconds",
			Help:    "Latency of upstream face classifier calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// SetModelLoaded flips the model gauge.
func SetModelLoaded(ok bool) {
	if ok {
		ModelLoaded.Set(1)
		return
	}
	ModelLoaded.Set(0)
}
