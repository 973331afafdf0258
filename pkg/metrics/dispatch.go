package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics counts outbound sends per channel and result.
type DispatchMetrics struct {
	sends   *prometheus.CounterVec
	matches prometheus.Counter
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	sends := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_sends_total",
		Help: "Outbound notification sends by channel and status.",
	}, []string{"channel", "status"})
	matches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "subscription_matches_total",
		Help: "Subscriptions matched against incoming listings.",
	})
	reg.MustRegister(sends, matches)
	return &DispatchMetrics{
		sends:   sends,
		matches: matches,
	}
}

// IncSend increments the send counter for the channel/status pair.
func (d *DispatchMetrics) IncSend(channel, status string) {
	if d == nil || d.sends == nil {
		return
	}
	d.sends.WithLabelValues(normalizeLabel(channel), normalizeLabel(status)).Inc()
}

// IncMatch increments the matched-subscription counter.
func (d *DispatchMetrics) IncMatch() {
	if d == nil || d.matches == nil {
		return
	}
	d.matches.Inc()
}
