package infrastructure

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	HTTPInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "job_board",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "job_board",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "job_board",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "route"})

	ListingEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "job_board",
		Subsystem: "listings",
		Name:      "events_total",
		Help:      "Listing events handled by this process.",
	}, []string{"type"})

	PaymentOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "job_board",
		Subsystem: "payments",
		Name:      "callbacks_total",
		Help:      "Payment gateway callbacks by outcome.",
	}, []string{"outcome"})

	WSClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "job_board",
		Subsystem: "ws",
		Name:      "clients",
		Help:      "Connected websocket clients.",
	})
)

func init() {
	Registry.MustRegister(
		HTTPInFlight,
		HTTPRequests,
		HTTPDuration,
		ListingEvents,
		PaymentOutcomes,
		WSClients,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// MetricsHandler exposes Registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
