package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync outcome labels for SyncRunsTotal
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeError   = "error"
)

// Booking result labels for SyncBookingsTotal
const (
	BookingCreated  = "created"
	BookingUpdated  = "updated"
	BookingError    = "error"
	BookingExcluded = "excluded"
)

// MetricsRegistry holds all Prometheus metrics for the sync service
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Sync Metrics
	SyncRunsTotal     *prometheus.CounterVec
	SyncBookingsTotal *prometheus.CounterVec
	SyncDuration      prometheus.Histogram
	PMSRequestsTotal  *prometheus.CounterVec
}

// NewMetricsRegistry registers every metric on reg. Pass
// prometheus.DefaultRegisterer in main and a fresh registry in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservation_sync_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reservation_sync_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 60, 300},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reservation_sync_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Sync Metrics
		SyncRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservation_sync_runs_total",
				Help: "Completed reservation sync runs by outcome",
			},
			[]string{"outcome"},
		),
		SyncBookingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservation_sync_bookings_total",
				Help: "Bookings handled by the reservation sync, by result",
			},
			[]string{"result"},
		),
		SyncDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reservation_sync_duration_seconds",
				Help:    "Reservation sync execution time in seconds",
				Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		PMSRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pms_requests_total",
				Help: "Requests made to the PMS API by endpoint and outcome",
			},
			[]string{"endpoint", "status"},
		),
	}
}

// ObserveSync records the result of one sync run. Safe on a nil registry.
func (m *MetricsRegistry) ObserveSync(outcome string, seconds float64, created, updated, errored, excluded int) {
	if m == nil {
		return
	}
	m.SyncRunsTotal.WithLabelValues(outcome).Inc()
	m.SyncDuration.Observe(seconds)
	m.SyncBookingsTotal.WithLabelValues(BookingCreated).Add(float64(created))
	m.SyncBookingsTotal.WithLabelValues(BookingUpdated).Add(float64(updated))
	m.SyncBookingsTotal.WithLabelValues(BookingError).Add(float64(errored))
	m.SyncBookingsTotal.WithLabelValues(BookingExcluded).Add(float64(excluded))
}

// ObservePMSRequest counts one PMS call. Safe on a nil registry.
func (m *MetricsRegistry) ObservePMSRequest(endpoint, status string) {
	if m == nil {
		return
	}
	m.PMSRequestsTotal.WithLabelValues(endpoint, status).Inc()
}
