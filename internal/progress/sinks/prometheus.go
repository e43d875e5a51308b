package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/WakiJi/wmscan/internal/progress"
)

// PrometheusSink exports scan progress metrics via Prometheus. It owns all
// collectors for probe counts, discovered links, batch completion, and the
// remaining wall-clock budget.
type PrometheusSink struct {
	probesTotal   *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	validLinks    prometheus.Counter
	datesDone     prometheus.Counter
	runActive     prometheus.Gauge
	budgetLeft    prometheus.Gauge
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		probesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wmscan_probes_total",
			Help: "Probe completions partitioned by status class.",
		}, []string{"status_class"}),
		probeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wmscan_probe_duration_seconds",
			Help:    "Probe round-trip latency partitioned by status class.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"status_class"}),
		validLinks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wmscan_valid_links_total",
			Help: "Total links that resolved successfully.",
		}),
		datesDone: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wmscan_dates_completed_total",
			Help: "Date batches processed to completion.",
		}),
		runActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wmscan_run_active",
			Help: "1 while a scan run is in progress.",
		}),
		budgetLeft: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wmscan_budget_remaining_seconds",
			Help: "Seconds of wall-clock budget remaining; stays zero without a ceiling.",
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.probesTotal,
		s.probeDuration,
		s.validLinks,
		s.datesDone,
		s.runActive,
		s.budgetLeft,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch. It is
// safe for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runActive.Set(1)
	case progress.StageRunDone:
		s.runActive.Set(0)
	case progress.StageDateDone:
		s.datesDone.Inc()
	case progress.StageProbeDone:
		class := string(evt.StatusClass)
		if class == "" {
			class = string(progress.StatusOther)
		}
		s.probesTotal.WithLabelValues(class).Inc()
		if evt.Dur > 0 {
			s.probeDuration.WithLabelValues(class).Observe(evt.Dur.Seconds())
		}
		if evt.Valid {
			s.validLinks.Inc()
		}
	}
	if evt.Remaining > 0 {
		s.budgetLeft.Set(evt.Remaining.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
