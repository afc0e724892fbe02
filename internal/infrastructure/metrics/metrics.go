package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Plans
	PlansRequested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terranova_plans_requested_total",
			Help: "Plan requests by variant and data source",
		},
		[]string{"variant", "source"},
	)
	PlanFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terranova_plan_failures_total",
			Help: "Plan requests that ended in an error",
		},
		[]string{"variant", "reason"}, // reason: validation|busy|backend|store
	)
	DemoFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "terranova_demo_fallbacks_total",
			Help: "Plans served by the demo generator after a backend failure",
		},
	)
	PlanDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "terranova_plan_duration_seconds",
			Help:    "Time from submit to a stored plan session",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms..25s
		},
		[]string{"variant"},
	)
	PlansInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "terranova_plans_in_flight",
			Help: "Plan requests currently waiting on a data source",
		},
	)

	// Sessions
	SessionsPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "terranova_sessions_purged_total",
			Help: "Expired plan sessions removed by the janitor",
		},
	)
	StoreOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terranova_store_ops_total",
			Help: "Session and map store operations",
		},
		[]string{"store", "op"}, // op: get|put|delete|list|purge
	)

	// Rendering / sharing
	MapsRendered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terranova_maps_rendered_total",
			Help: "Grid renders by output kind",
		},
		[]string{"kind"}, // kind: png|terminal
	)
	ShareLinks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terranova_share_links_total",
			Help: "Share link operations by result",
		},
		[]string{"op", "result"}, // op: encode|restore|copy
	)

	// HTTP
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terranova_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"route", "method", "status"},
	)
	HTTPDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "terranova_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	StreamConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "terranova_stream_connections",
			Help: "Open websocket plan streams",
		},
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terranova_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		// Plans
		PlansRequested,
		PlanFailures,
		DemoFallbacks,
		PlanDurationSeconds,
		PlansInFlight,
		// Sessions
		SessionsPurged,
		StoreOps,
		// Render / share
		MapsRendered,
		ShareLinks,
		// HTTP
		HTTPRequests,
		HTTPDurationSeconds,
		StreamConnections,
		// Errors
		Errors,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer blocks serving /metrics on addr.
func StartMetricsServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}

// Plans
func IncPlanRequested(variant, source string) {
	PlansRequested.WithLabelValues(variant, source).Inc()
}

func IncPlanFailure(variant, reason string) {
	PlanFailures.WithLabelValues(variant, reason).Inc()
}

func IncDemoFallback() {
	DemoFallbacks.Inc()
}

func ObservePlanDuration(variant string, d time.Duration) {
	PlanDurationSeconds.WithLabelValues(variant).Observe(d.Seconds())
}

func IncPlansInFlight() {
	PlansInFlight.Inc()
}

func DecPlansInFlight() {
	PlansInFlight.Dec()
}

// Sessions
func AddSessionsPurged(n int) {
	SessionsPurged.Add(float64(n))
}

func IncStoreOp(store, op string) {
	StoreOps.WithLabelValues(store, op).Inc()
}

// Render / share
func IncMapRendered(kind string) {
	MapsRendered.WithLabelValues(kind).Inc()
}

func IncShareLink(op, result string) {
	ShareLinks.WithLabelValues(op, result).Inc()
}

// HTTP
func ObserveHTTPRequest(route, method string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(route, method, http.StatusText(status)).Inc()
	HTTPDurationSeconds.WithLabelValues(route, method).Observe(d.Seconds())
}

func IncStreamConnections() {
	StreamConnections.Inc()
}

func DecStreamConnections() {
	StreamConnections.Dec()
}

// Errors
func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
