package norah

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reply outcomes, used as the "outcome" metric label.
const (
	OutcomeReply    = "reply"
	OutcomeBlocked  = "blocked"
	OutcomeGreeting = "greeting"
	OutcomeGated    = "gated"
	OutcomeError    = "error"
)

// Metrics records engine activity in Prometheus. A nil *Metrics is a no-op.
type Metrics struct {
	replies *prometheus.CounterVec
	intents *prometheus.CounterVec
	blocks  *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewMetrics creates the engine collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		replies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "norah_replies_total",
				Help: "Total number of analyst replies by outcome",
			},
			[]string{"outcome"},
		),
		intents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "norah_intents_total",
				Help: "Total number of classified intents by session state",
			},
			[]string{"intent", "state"},
		),
		blocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "norah_guardrail_blocks_total",
				Help: "Total number of messages blocked by a guardrail rule",
			},
			[]string{"rule"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "norah_reply_duration_seconds",
				Help:    "Reply generation duration in seconds, store reads included",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"outcome"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.replies, m.intents, m.blocks, m.latency)
	}
	return m
}

func (m *Metrics) recordReply(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.replies.WithLabelValues(outcome).Inc()
	m.latency.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) recordIntent(intent Intent, state SessionState) {
	if m == nil {
		return
	}
	m.intents.WithLabelValues(string(intent), string(state)).Inc()
}

func (m *Metrics) recordBlock(rule string) {
	if m == nil {
		return
	}
	m.blocks.WithLabelValues(rule).Inc()
}
