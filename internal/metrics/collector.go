package metrics

import "github.com/prometheus/client_golang/prometheus"

// InboxStats provides the collector access to inbox watcher state.
type InboxStats interface {
	Pending() int
	Processed() int64
	Failed() int64
}

// Collector implements prometheus.Collector to read inbox state at scrape time.
type Collector struct {
	stats InboxStats

	pending   *prometheus.Desc
	processed *prometheus.Desc
	failed    *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// stats may be nil when no inbox is configured; metrics then report 0.
func NewCollector(stats InboxStats) *Collector {
	return &Collector{
		stats: stats,
		pending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "inbox", "pending"),
			"Audio files waiting in the inbox queue.",
			nil, nil,
		),
		processed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "inbox", "processed_total"),
			"Inbox files transcribed successfully.",
			nil, nil,
		),
		failed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "inbox", "failed_total"),
			"Inbox files whose transcription returned an error.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pending
	ch <- c.processed
	ch <- c.failed
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	var pending int
	var processed, failed int64
	if c.stats != nil {
		pending = c.stats.Pending()
		processed = c.stats.Processed()
		failed = c.stats.Failed()
	}
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(pending))
	ch <- prometheus.MustNewConstMetric(c.processed, prometheus.CounterValue, float64(processed))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(failed))
}
