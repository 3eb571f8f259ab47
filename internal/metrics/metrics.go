// Package metrics exposes Prometheus counters for the claim pipeline.
package metrics

import (
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lnf"

// Metrics holds the collectors of one daemon. Each instance owns its registry.
type Metrics struct {
	Registry *prometheus.Registry

	Transitions        *prometheus.CounterVec
	IgnoredEvents      *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	RepliesScheduled   prometheus.Counter
	RepliesDelivered   prometheus.Counter
	RepliesCancelled   prometheus.Counter
	RepliesStale       prometheus.Counter
	OpenSessions       prometheus.Gauge
	SignIns            *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Verification status transitions applied.",
		}, []string{"from", "to"}),
		IgnoredEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ignored_events_total",
			Help:      "Events that were inert in the conversation's status.",
		}, []string{"event", "status"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Outbound content rejected before reaching the state machine.",
		}, []string{"field"}),
		RepliesScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_scheduled_total",
			Help:      "Simulated counterparty replies scheduled.",
		}),
		RepliesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_delivered_total",
			Help:      "Simulated counterparty replies appended.",
		}),
		RepliesCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_cancelled_total",
			Help:      "Scheduled replies cancelled before firing.",
		}),
		RepliesStale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_stale_total",
			Help:      "Replies that fired after their conversation moved on and were dropped.",
		}),
		OpenSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_sessions",
			Help:      "Conversations currently loaded in memory.",
		}),
		SignIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_ins_total",
			Help:      "Sign-in attempts by outcome.",
		}, []string{"outcome"}),
	}
	m.Registry.MustRegister(
		m.Transitions,
		m.IgnoredEvents,
		m.ValidationFailures,
		m.RepliesScheduled,
		m.RepliesDelivered,
		m.RepliesCancelled,
		m.RepliesStale,
		m.OpenSessions,
		m.SignIns,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "go_goroutines",
			Help: "Number of active goroutines.",
		}, func() float64 { return float64(runtime.NumGoroutine()) }),
	)
	return m
}

// Gauge registers a gauge computed on scrape.
func (m *Metrics) Gauge(name, help string, fn func() float64) {
	m.Registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
