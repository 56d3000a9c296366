package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Settlement outcomes used as the outcome label.
const (
	OutcomeSettled           = "settled"
	OutcomeEmptyCart         = "empty_cart"
	OutcomeProductMissing    = "product_missing"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeCartConflict      = "cart_conflict"
	OutcomeError             = "error"
)

// SettlementMetrics counts and times cart settlements.
type SettlementMetrics struct {
	total    *prometheus.CounterVec
	duration prometheus.Histogram
}

func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settlements_total",
		Help:      "Cart settlements by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "settlement_duration_seconds",
		Help:      "Wall time of a settlement including its database transaction.",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(total, duration)
	return &SettlementMetrics{total: total, duration: duration}
}

func (m *SettlementMetrics) Observe(outcome string, d time.Duration) {
	if m == nil || m.total == nil {
		return
	}
	m.total.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.duration.Observe(d.Seconds())
}
