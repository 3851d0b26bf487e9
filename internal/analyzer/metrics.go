package analyzer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/camerpulse/sentinel/internal/signal"
	"github.com/camerpulse/sentinel/pkg/monitoring"
)

// Metrics tracks classification activity. The zero value is a no-op, which
// keeps tests free of Prometheus registration.
type Metrics struct {
	analyses    *prometheus.CounterVec
	fallbacks   prometheus.Counter
	alerts      *prometheus.CounterVec
	sideEffects *prometheus.CounterVec
	duration    prometheus.Observer
}

func NewMetrics(mc *monitoring.MetricsCollector) *Metrics {
	return &Metrics{
		analyses: mc.NewCounter("analyses_total",
			"Classifications performed, by classifier source", []string{"source"}),
		fallbacks: mc.NewCounter("classifier_fallbacks_total",
			"Degraded classifications served by the heuristic fallback", nil).WithLabelValues(),
		alerts: mc.NewCounter("threat_alerts_total",
			"Threat alerts raised, by threat level", []string{"level"}),
		sideEffects: mc.NewCounter("side_effect_failures_total",
			"Persistence, alerting and learning failures", []string{"stage"}),
		duration: mc.NewHistogram("analysis_duration_seconds",
			"Time spent classifying one item", nil, nil).WithLabelValues(),
	}
}

func (m *Metrics) observe(outcome signal.Outcome, d time.Duration) {
	if m.analyses == nil {
		return
	}
	m.analyses.WithLabelValues(string(outcome.Source)).Inc()
	if outcome.Degraded {
		m.fallbacks.Inc()
	}
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) alertRaised(level signal.ThreatLevel) {
	if m.alerts == nil {
		return
	}
	m.alerts.WithLabelValues(string(level)).Inc()
}

func (m *Metrics) sideEffectFailure(stage string) {
	if m.sideEffects == nil {
		return
	}
	m.sideEffects.WithLabelValues(stage).Inc()
}
