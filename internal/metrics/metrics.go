// Package metrics holds the prometheus collectors of the ingestor.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	namespace = "trade_ingestor"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type Metrics struct {
	// Ticks counts loop iterations.
	Ticks prometheus.Counter
	// Batches counts publish attempts by outcome.
	Batches *prometheus.CounterVec
	// Trades counts trades by instrument and outcome.
	Trades *prometheus.CounterVec
	// PublishDuration observes PublishBatch latency.
	PublishDuration prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total loop ticks",
		}),
		Batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Total batches published, by outcome",
		}, []string{"outcome"}),
		Trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Total trades published, by instrument and outcome",
		}, []string{"instrument", "outcome"}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "PublishBatch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Ticks, m.Batches, m.Trades, m.PublishDuration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry with the ingestor collectors plus the
// process and Go runtime collectors.
func NewRegistry(m *Metrics) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	if err := m.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func Outcome(success bool) string {
	if success {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// ObservePublish records one publish attempt. Safe on a nil receiver.
func (m *Metrics) ObservePublish(instruments []string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := Outcome(success)
	m.Ticks.Inc()
	m.Batches.WithLabelValues(outcome).Inc()
	for _, instrument := range instruments {
		m.Trades.WithLabelValues(instrument, outcome).Inc()
	}
	m.PublishDuration.Observe(d.Seconds())
}
