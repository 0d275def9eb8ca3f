// Package metrics records service activity as Prometheus collectors fed by the
// engine lifecycle hooks.
package metrics

import (
	"context"
	"log/slog"

	"github.com/aretw0/motherlink/internal/logging"
	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics owns a registry with the service collectors.
type Metrics struct {
	registry *prometheus.Registry
	logger   *slog.Logger

	requests       *prometheus.CounterVec
	nodeVisits     *prometheus.CounterVec
	actions        *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	evicted        prometheus.Counter
}

// Option configures Metrics.
type Option func(*Metrics)

// WithLogger logs each hook at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Metrics) { m.logger = logger }
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(m *Metrics) {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// New creates and registers the collectors on a fresh registry.
func New(opts ...Option) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logger:   logging.NewNop(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "motherlink_requests_total",
				Help: "USSD requests by reply outcome",
			},
			[]string{"outcome"},
		),
		nodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "motherlink_node_visits_total",
				Help: "Path tokens consumed per menu node",
			},
			[]string{"node_id"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "motherlink_actions_total",
				Help: "Handler invocations by result",
			},
			[]string{"handler", "result"},
		),
		actionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "motherlink_action_duration_seconds",
				Help:    "Duration of handler executions",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 4, 8},
			},
			[]string{"handler"},
		),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "motherlink_sessions_evicted_total",
			Help: "Idle sessions removed by the sweeper",
		}),
	}
	m.registry.MustRegister(m.requests, m.nodeVisits, m.actions, m.actionDuration, m.evicted)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry is served at /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			m.nodeVisits.WithLabelValues(e.NodeID).Inc()
		},
		OnAction: func(_ context.Context, e *domain.ActionEvent) {
			m.logger.Debug("action_call", "session_id", e.SessionID, "handler", e.Handler, "kind", e.Kind)
		},
		OnActionReturn: func(_ context.Context, e *domain.ActionEvent) {
			result := "ok"
			if e.IsError {
				result = "error"
			}
			m.actions.WithLabelValues(e.Handler, result).Inc()
			m.actionDuration.WithLabelValues(e.Handler).Observe(e.Duration.Seconds())
		},
		OnReply: func(_ context.Context, e *domain.ReplyEvent) {
			m.requests.WithLabelValues(e.Outcome).Inc()
		},
	}
}

// OnEvict is the sweeper eviction callback.
func (m *Metrics) OnEvict(n int) {
	if n > 0 {
		m.evicted.Add(float64(n))
	}
}
