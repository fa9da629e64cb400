// Package metrics holds the Prometheus collectors of the auth server.
//
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bulletin"

// Session issue reasons.
const (
	ReasonCreate  = "create"
	ReasonRefresh = "refresh"
)

// Sign-in results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

type Metrics struct {
	registry *prometheus.Registry

	sessionsIssued  *prometheus.CounterVec
	refreshFailures prometheus.Counter
	signIns         *prometheus.CounterVec
	rpcRequests     *prometheus.CounterVec
	rpcDuration     *prometheus.HistogramVec
	sweeperDeleted  prometheus.Counter
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		sessionsIssued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "sessions_issued_total",
			Help:      "Sessions issued, by reason.",
		}, []string{"reason"}),
		refreshFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "refresh_failures_total",
			Help:      "Refresh attempts rejected as unauthorized.",
		}),
		signIns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "signins_total",
			Help:      "Sign-in attempts, by result.",
		}, []string{"result"}),
		rpcRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Handled RPCs, by method and status code.",
		}, []string{"method", "code"}),
		rpcDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "request_duration_seconds",
			Help:      "RPC latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		sweeperDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "sweeper_deleted_total",
			Help:      "Expired refresh token records removed by the sweeper.",
		}),
	}
}

func (m *Metrics) SessionIssued(reason string) {
	if m == nil {
		return
	}
	m.sessionsIssued.WithLabelValues(reason).Inc()
}

func (m *Metrics) RefreshFailed() {
	if m == nil {
		return
	}
	m.refreshFailures.Inc()
}

func (m *Metrics) SignIn(result string) {
	if m == nil {
		return
	}
	m.signIns.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRPC(method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(method, code).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) SweeperDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sweeperDeleted.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
