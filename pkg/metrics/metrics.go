// Package metrics holds the Prometheus collectors shared by the service and
// the HTTP server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ourtrips",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code",
	}, []string{"method", "route", "code"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ourtrips",
		Name:      "http_request_duration_seconds",
		Help:      "Time spent serving HTTP requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Recognitions counts vision calls by outcome: found, none or error.
	Recognitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ourtrips",
		Name:      "landmark_recognitions_total",
		Help:      "Landmark recognition attempts by outcome",
	}, []string{"outcome"})

	RecognitionConfidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ourtrips",
		Name:      "landmark_confidence",
		Help:      "Confidence of the selected landmark",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
	})

	PlansPosted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ourtrips",
		Name:      "plans_posted_total",
		Help:      "Plan messages posted to trip boards",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests,
		HTTPDuration,
		Recognitions,
		RecognitionConfidence,
		PlansPosted,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served request.
func ObserveRequest(method, route string, code int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
