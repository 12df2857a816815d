package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	projectrpc "github.com/aman-zulfiqar/a2a-swap/internal/rpc"
)

// Gate outcomes recorded by the payment middleware.
const (
	OutcomeChallenged   = "challenged"
	OutcomeInvalid      = "invalid"
	OutcomeVerifyFailed = "verify_failed"
	OutcomeSettleFailed = "settle_failed"
	OutcomeSettled      = "settled"
)

// Metrics holds the collectors exported on /metrics. A nil *Metrics is
// valid and records nothing, so components never need to check.
type Metrics struct {
	rpcCalls      *prometheus.CounterVec
	rpcLatency    *prometheus.HistogramVec
	gateOutcomes  *prometheus.CounterVec
	verifyLatency prometheus.Histogram
	settleLatency prometheus.Histogram
	simulations   *prometheus.CounterVec
	gatherer      prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return newWith(reg, reg)
}

func newWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		rpcCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "a2a",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Solana RPC calls by method and result.",
		}, []string{"method", "result"}),
		rpcLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "a2a",
			Subsystem: "rpc",
			Name:      "call_seconds",
			Help:      "Solana RPC call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		gateOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "a2a",
			Subsystem: "payment",
			Name:      "gate_outcomes_total",
			Help:      "Payment gate decisions by route and outcome.",
		}, []string{"route", "outcome"}),
		verifyLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "a2a",
			Subsystem: "payment",
			Name:      "verify_seconds",
			Help:      "Facilitator verify latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		settleLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "a2a",
			Subsystem: "payment",
			Name:      "settle_seconds",
			Help:      "Facilitator settle latency, including timeouts.",
			Buckets:   []float64{.1, .25, .5, 1, 2, 3, 5, 7, 10},
		}),
		simulations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "a2a",
			Subsystem: "amm",
			Name:      "simulations_total",
			Help:      "Swap simulations served, by result.",
		}, []string{"result"}),
		gatherer: gatherer,
	}
}

// ObserveRPC implements rpc.Observer.
func (m *Metrics) ObserveRPC(method string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rpcCalls.WithLabelValues(method, rpcResult(err)).Inc()
	m.rpcLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

func rpcResult(err error) string {
	if err == nil {
		return "ok"
	}
	var rerr *projectrpc.RPCError
	var herr *projectrpc.HTTPError
	switch {
	case errors.Is(err, projectrpc.ErrAccountNotFound):
		return "not_found"
	case errors.As(err, &rerr):
		return "rpc_error"
	case errors.As(err, &herr):
		return "http_error"
	default:
		return "transport_error"
	}
}

func (m *Metrics) GateOutcome(route, outcome string) {
	if m == nil {
		return
	}
	m.gateOutcomes.WithLabelValues(route, outcome).Inc()
}

func (m *Metrics) ObserveVerify(d time.Duration) {
	if m == nil {
		return
	}
	m.verifyLatency.Observe(d.Seconds())
}

func (m *Metrics) ObserveSettle(d time.Duration) {
	if m == nil {
		return
	}
	m.settleLatency.Observe(d.Seconds())
}

func (m *Metrics) Simulation(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.simulations.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
