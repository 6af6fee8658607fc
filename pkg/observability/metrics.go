package observability

import (
	"context"

	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "blueprint"

// Metrics holds the collectors fed by lifecycle hooks.
type Metrics struct {
	Phases         *prometheus.CounterVec
	PhaseDuration  *prometheus.HistogramVec
	ExpertCalls    *prometheus.CounterVec
	ExpertDuration *prometheus.HistogramVec
	GateDecisions  *prometheus.CounterVec
	Confidence     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Phases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_runs_total",
			Help:      "Phases completed, by phase and result.",
		}, []string{"phase", "result"}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of workflow phases.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"phase"}),
		ExpertCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expert_calls_total",
			Help:      "Expert invocations, by role, capability and result.",
		}, []string{"role", "capability", "fallback", "result"}),
		ExpertDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "expert_duration_seconds",
			Help:      "Latency of expert invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"role"}),
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Final gate decisions, by outcome and reason.",
		}, []string{"outcome", "reason"}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gate_confidence",
			Help:      "Confidence of merged results seen by the gate.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
	}

	for _, c := range []prometheus.Collector{m.Phases, m.PhaseDuration, m.ExpertCalls, m.ExpertDuration, m.GateDecisions, m.Confidence} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseLeave: func(_ context.Context, e *domain.PhaseEvent) {
			m.Phases.WithLabelValues(string(e.Phase), result(e.Err)).Inc()
			m.PhaseDuration.WithLabelValues(string(e.Phase)).Observe(e.Duration.Seconds())
		},
		OnExpertReturn: func(_ context.Context, e *domain.ExpertEvent) {
			fallback := "false"
			if e.Fallback {
				fallback = "true"
			}
			m.ExpertCalls.WithLabelValues(e.Role, e.Capability, fallback, result(e.Err)).Inc()
			m.ExpertDuration.WithLabelValues(e.Role).Observe(e.Duration.Seconds())
		},
		OnGateDecision: func(_ context.Context, e *domain.GateEvent) {
			m.GateDecisions.WithLabelValues(string(e.Decision.Outcome), string(e.Decision.Reason)).Inc()
			m.Confidence.Observe(e.Decision.Confidence)
		},
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
