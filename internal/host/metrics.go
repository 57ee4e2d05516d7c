package host

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the host's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	events   prometheus.Counter
	pools    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exchange",
			Name:      "calls_total",
			Help:      "Total number of external calls by operation and status.",
		}, []string{"op", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "exchange",
			Name:      "call_duration_seconds",
			Help:      "Duration of external calls.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"op"}),
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exchange",
			Name:      "events_total",
			Help:      "Total number of committed pool events.",
		}),
		pools: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "exchange",
			Name:      "pools",
			Help:      "Number of pools created.",
		}),
	}
	reg.MustRegister(m.calls, m.duration, m.events, m.pools)
	return m
}

func (m *Metrics) observe(op, status string, elapsed time.Duration, events int) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(op, status).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	m.events.Add(float64(events))
}

func (m *Metrics) setPools(n int) {
	if m == nil {
		return
	}
	m.pools.Set(float64(n))
}
