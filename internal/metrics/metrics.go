package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors of the draft service. A nil *Metrics is a
// no-op so tests can leave it out.
type Metrics struct {
	actions  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	created  *prometheus.CounterVec
	finished *prometheus.CounterVec
	watchers prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "draft",
			Name:      "actions_total",
			Help:      "Draft actions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "draft",
			Name:      "action_duration_seconds",
			Help:      "Time spent applying one draft action.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "draft",
			Name:      "matches_created_total",
			Help:      "Accepted challenges by mode.",
		}, []string{"mode"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "draft",
			Name:      "matches_finished_total",
			Help:      "Scored matches by mode and result.",
		}, []string{"mode", "result"}),
		watchers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "draft",
			Name:      "ws_watchers",
			Help:      "Open websocket watchers.",
		}),
	}
	reg.MustRegister(m.actions, m.latency, m.created, m.finished, m.watchers)
	return m
}

func (m *Metrics) ObserveAction(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(kind, outcome).Inc()
	m.latency.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) MatchCreated(mode string) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(mode).Inc()
}

// MatchFinished records a scored match; result is "A", "B" or "draw".
func (m *Metrics) MatchFinished(mode, result string) {
	if m == nil {
		return
	}
	m.finished.WithLabelValues(mode, result).Inc()
}

func (m *Metrics) WatcherJoined() {
	if m == nil {
		return
	}
	m.watchers.Inc()
}

func (m *Metrics) WatcherLeft() {
	if m == nil {
		return
	}
	m.watchers.Dec()
}
