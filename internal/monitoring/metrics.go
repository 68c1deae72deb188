package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"

	"maitred/internal/engine"
)

// Collector gathers decision metrics on its own registry and implements
// the engine's UsageTracker interface.
type Collector struct {
	registry *prometheus.Registry

	decisionLatency *prometheus.HistogramVec
	decisionsTotal  *prometheus.CounterVec
	fallbackTotal   prometheus.Counter
	gateOverrides   prometheus.Counter
	confidence      *prometheus.HistogramVec
}

// NewCollector creates a collector with all metrics registered
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	decisionLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "decision_latency_seconds",
			Help:    "Time taken to decide one conversation turn",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"path"},
	)

	decisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decisions_total",
			Help: "Decisions made, by path and resulting action",
		},
		[]string{"path", "action"},
	)

	fallbackTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "decision_fallback_total",
			Help: "Turns resolved by the pattern matcher fallback",
		},
	)

	gateOverrides := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "decision_gate_overrides_total",
			Help: "Mutating actions replaced by the order state gate",
		},
	)

	confidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "decision_confidence",
			Help:    "Confidence score distribution",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"path"},
	)

	collectors := []prometheus.Collector{
		decisionLatency, decisionsTotal, fallbackTotal, gateOverrides, confidence,
	}
	for _, c := range collectors {
		registry.MustRegister(c)
	}

	return &Collector{
		registry:        registry,
		decisionLatency: decisionLatency,
		decisionsTotal:  decisionsTotal,
		fallbackTotal:   fallbackTotal,
		gateOverrides:   gateOverrides,
		confidence:      confidence,
	}
}

// Registry exposes the registry for the metrics HTTP handler
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordDecision implements engine.UsageTracker
func (c *Collector) RecordDecision(result *engine.DecisionResult) {
	action := string(engine.ActionNone)
	if result.Action != nil {
		action = string(result.Action.Type)
	}

	c.decisionLatency.WithLabelValues(result.Path).Observe(result.Latency.Seconds())
	c.decisionsTotal.WithLabelValues(result.Path, action).Inc()
	c.confidence.WithLabelValues(result.Path).Observe(result.Confidence)

	if result.UsedFallback {
		c.fallbackTotal.Inc()
	}
	if result.Action != nil && result.Action.Type == engine.ActionExplainLocked {
		c.gateOverrides.Inc()
	}
}
