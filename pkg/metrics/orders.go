package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// OrderMetrics records order placement outcomes.
type OrderMetrics struct {
	placed   prometheus.Counter
	failures *prometheus.CounterVec
	revenue  prometheus.Counter
	duration prometheus.Histogram
	status   *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on reg. A nil registerer
// yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	m := &OrderMetrics{
		placed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sugi",
			Name:      "orders_placed_total",
			Help:      "Orders committed by the order writer.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sugi",
			Name:      "order_failures_total",
			Help:      "Order placements rejected or aborted, by error code.",
		}, []string{"code"}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sugi",
			Name:      "order_revenue_total",
			Help:      "Sum of committed order totals.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sugi",
			Name:      "order_placement_duration_seconds",
			Help:      "Time spent inside the order placement transaction.",
			Buckets:   prometheus.DefBuckets,
		}),
		status: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sugi",
			Name:      "order_status_changes_total",
			Help:      "Admin order status transitions, by target status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.placed, m.failures, m.revenue, m.duration, m.status)
	return m
}

// ObservePlaced records a committed order.
func (m *OrderMetrics) ObservePlaced(total decimal.Decimal, took time.Duration) {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
	m.revenue.Add(total.InexactFloat64())
	m.duration.Observe(took.Seconds())
}

// IncFailure counts a failed placement under code.
func (m *OrderMetrics) IncFailure(code string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncStatusChange counts a transition into status.
func (m *OrderMetrics) IncStatusChange(status string) {
	if m == nil || m.status == nil {
		return
	}
	m.status.WithLabelValues(normalizeLabel(status)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
