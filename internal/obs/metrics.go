package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP-level metrics shared by every route.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Domain counters mirrored from the clinical workflows.
var (
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medvault_auth_login_total",
			Help: "Total login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	PatientsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "medvault_patients_created_total",
		Help: "Total patients created.",
	})

	ReportsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "medvault_reports_created_total",
		Help: "Total medical reports created.",
	})

	DocumentsAnalyzed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "medvault_documents_analyzed_total",
		Help: "Total documents analyzed by the AI service.",
	})

	EmergencyRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "medvault_emergency_requests_total",
		Help: "Total break-the-glass access requests.",
	})

	EmergencyDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medvault_emergency_decisions_total",
			Help: "Total emergency access decisions by outcome.",
		},
		[]string{"outcome"},
	)
)

// InitMetrics registers all metrics in the default registry.
func InitMetrics() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		LoginAttempts, PatientsCreated, ReportsCreated, DocumentsAnalyzed,
		EmergencyRequests, EmergencyDecisions,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument wraps a handler with in-flight, rate and latency metrics.
// routePattern resolves the matched route template (":param" style) so that
// per-entity URLs do not explode label cardinality.
func Instrument(next http.Handler, routePattern func(r *http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := r.URL.Path
		if routePattern != nil {
			if p := routePattern(r); p != "" {
				path = p
			}
		}
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter captures the response code for metric labels.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
