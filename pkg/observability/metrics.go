package observability

import (
	"time"

	"github.com/aretw0/vizkit/pkg/poll"
	"github.com/aretw0/vizkit/pkg/tree"
	"github.com/aretw0/vizkit/pkg/value"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects poll loop activity.
type Metrics struct {
	Samples      *prometheus.CounterVec
	Misses       *prometheus.CounterVec
	NodeChanges  *prometheus.CounterVec
	Commits      *prometheus.CounterVec
	PendingEdits prometheus.Gauge
	TickDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Samples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vizkit_samples_total",
				Help: "Total number of samples merged into trees",
			},
			[]string{"registration"},
		),
		Misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vizkit_sample_misses_total",
				Help: "Total number of due polls that produced no sample",
			},
			[]string{"registration"},
		),
		NodeChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vizkit_node_changes_total",
				Help: "Tree nodes added, updated, removed or retained by merges",
			},
			[]string{"registration", "change"},
		),
		Commits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vizkit_commits_total",
				Help: "Edited leaves written back, by result",
			},
			[]string{"registration", "result"},
		),
		PendingEdits: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vizkit_pending_edits",
			Help: "1 while any tree holds uncommitted edits",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vizkit_tick_duration_seconds",
			Help:    "Duration of poll loop ticks",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	for _, c := range []prometheus.Collector{m.Samples, m.Misses, m.NodeChanges, m.Commits, m.PendingEdits, m.TickDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns loop hooks feeding the collectors.
func (m *Metrics) Hooks() poll.Hooks {
	return poll.Hooks{
		OnSample: func(name string, ch *tree.Changes) {
			m.Samples.WithLabelValues(name).Inc()
			m.NodeChanges.WithLabelValues(name, "added").Add(float64(len(ch.Added)))
			m.NodeChanges.WithLabelValues(name, "updated").Add(float64(len(ch.Updated)))
			m.NodeChanges.WithLabelValues(name, "removed").Add(float64(len(ch.Removed)))
			m.NodeChanges.WithLabelValues(name, "retained").Add(float64(len(ch.Retained)))
		},
		OnMiss: func(name string) {
			m.Misses.WithLabelValues(name).Inc()
		},
		OnPendingEdits: func(pending bool) {
			if pending {
				m.PendingEdits.Set(1)
			} else {
				m.PendingEdits.Set(0)
			}
		},
		OnCommit: func(name string, _ value.Path, err error) {
			result := "ok"
			if err != nil {
				result = "error"
			}
			m.Commits.WithLabelValues(name, result).Inc()
		},
	}
}

// ObserveTick records the duration of one tick.
func (m *Metrics) ObserveTick(d time.Duration) {
	m.TickDuration.Observe(d.Seconds())
}
