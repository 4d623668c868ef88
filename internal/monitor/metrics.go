// Package monitor exposes an optional HTTP status surface for long sweeps:
// a JSON run snapshot, a health probe, and Prometheus metrics.
package monitor

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aisuko/rp-needle/internal/sweep"
)

// statsCollector bridges sweep.Stats into Prometheus. Values are read from
// the atomic snapshot at scrape time, so the collector itself holds no state.
type statsCollector struct {
	stats *sweep.Stats

	dispatched *prometheus.Desc
	completed  *prometheus.Desc
	failed     *prometheus.Desc
	unscored   *prometheus.Desc
	retries    *prometheus.Desc
	inFlight   *prometheus.Desc
	avgLatency *prometheus.Desc
}

// newStatsCollector creates a collector over the given stats.
func newStatsCollector(stats *sweep.Stats) *statsCollector {
	return &statsCollector{
		stats: stats,
		dispatched: prometheus.NewDesc("needle_trials_dispatched_total",
			"Trials handed to the worker pool.", nil, nil),
		completed: prometheus.NewDesc("needle_trials_completed_total",
			"Trials that produced a scored record.", nil, nil),
		failed: prometheus.NewDesc("needle_trials_failed_total",
			"Trials that ended with a failed record.", nil, nil),
		unscored: prometheus.NewDesc("needle_trials_unscored_total",
			"Completed trials the evaluator could not score.", nil, nil),
		retries: prometheus.NewDesc("needle_provider_retries_total",
			"Retried provider calls across all trials.", nil, nil),
		inFlight: prometheus.NewDesc("needle_trials_in_flight",
			"Trials currently executing.", nil, nil),
		avgLatency: prometheus.NewDesc("needle_trial_avg_latency_seconds",
			"Mean latency of completed trials.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.dispatched
	ch <- c.completed
	ch <- c.failed
	ch <- c.unscored
	ch <- c.retries
	ch <- c.inFlight
	ch <- c.avgLatency
}

// Collect implements prometheus.Collector.
func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.stats.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.dispatched, prometheus.CounterValue, float64(snap.Dispatched))
	ch <- prometheus.MustNewConstMetric(c.completed, prometheus.CounterValue, float64(snap.Completed))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(snap.Failed))
	ch <- prometheus.MustNewConstMetric(c.unscored, prometheus.CounterValue, float64(snap.Unscored))
	ch <- prometheus.MustNewConstMetric(c.retries, prometheus.CounterValue, float64(snap.Retries))
	ch <- prometheus.MustNewConstMetric(c.inFlight, prometheus.GaugeValue, float64(snap.InFlight))
	ch <- prometheus.MustNewConstMetric(c.avgLatency, prometheus.GaugeValue, snap.AvgLatency.Seconds())
}
