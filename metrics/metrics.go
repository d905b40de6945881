// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tennis"

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	BracketLookups    *prometheus.CounterVec
	MatchTransitions  *prometheus.CounterVec
	SnapshotsWritten  prometheus.Counter
	RankRecalcSeconds prometheus.Histogram
	RankedEntries     prometheus.Histogram
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		BracketLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bracket_lookups_total",
			Help:      "Bracket structure and seeding lookups by operation and outcome.",
		}, []string{"operation", "outcome"}),
		MatchTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_transitions_total",
			Help:      "Match status changes by target status and outcome.",
		}, []string{"to", "outcome"}),
		SnapshotsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_snapshots_written_total",
			Help:      "Rule snapshots frozen at match completion.",
		}),
		RankRecalcSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rank_recalculation_seconds",
			Help:      "Duration of category rank recalculations.",
			Buckets:   prometheus.DefBuckets,
		}),
		// Без метки категории: категорий столько, сколько создадут организаторы.
		RankedEntries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ranked_entries",
			Help:      "Entries per category rank recalculation.",
			Buckets:   prometheus.ExponentialBuckets(4, 2, 8),
		}),
	}
	reg.MustRegister(
		m.BracketLookups,
		m.MatchTransitions,
		m.SnapshotsWritten,
		m.RankRecalcSeconds,
		m.RankedEntries,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome maps an error to an outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// ObserveSince records the time elapsed since start on h.
func ObserveSince(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}
