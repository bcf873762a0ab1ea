// Package metrics exposes Prometheus collectors for requests, queries and
// ledger activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roster"

// Metrics holds every collector on a private registry.
type Metrics struct {
	registry       *prometheus.Registry
	apiRequests    *prometheus.CounterVec
	apiLatency     *prometheus.HistogramVec
	queryLatency   *prometheus.HistogramVec
	presenceWrites *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	reportsSent    *prometheus.CounterVec
}

// New creates and registers all collectors, plus Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database statement latency by operation.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),
		presenceWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presence_writes_total",
			Help:      "Attendance ledger writes by cohort and value.",
		}, []string{"cohort", "present"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_confirmed_total",
			Help:      "Confirmed cohort transitions by source and destination.",
		}, []string{"from", "to"}),
		reportsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_sent_total",
			Help:      "Monthly report deliveries by cohort and outcome.",
		}, []string{"cohort", "outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests,
		m.apiLatency,
		m.queryLatency,
		m.presenceWrites,
		m.transitions,
		m.reportsSent,
	)
	return m
}

// ObserveQuery records a database statement duration.
func (m *Metrics) ObserveQuery(op string, d time.Duration) {
	m.queryLatency.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveRequest records an HTTP request. route is the mux pattern, not the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// PresenceWritten counts one ledger write.
func (m *Metrics) PresenceWritten(cohortID string, present bool) {
	m.presenceWrites.WithLabelValues(cohortID, strconv.FormatBool(present)).Inc()
}

// TransitionConfirmed counts one confirmed transition.
func (m *Metrics) TransitionConfirmed(from, to string) {
	m.transitions.WithLabelValues(from, to).Inc()
}

// ReportSent counts one report delivery attempt.
func (m *Metrics) ReportSent(cohortID string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.reportsSent.WithLabelValues(cohortID, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
