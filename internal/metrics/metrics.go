// Package metrics exposes feed refresh counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	newserrs "github.com/harshitpdoshi/news-app/internal/errors"
)

// Collector records the outcome of every feed update.
type Collector struct {
	updates     prometheus.Counter
	failures    *prometheus.CounterVec
	added       prometheus.Counter
	latency     prometheus.Histogram
	lastRefresh prometheus.Gauge
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsapp_feed_updates_total",
			Help: "Feed updates that completed.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsapp_feed_update_failures_total",
			Help: "Feed updates that failed, by error kind.",
		}, []string{"kind"}),
		added: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsapp_articles_added_total",
			Help: "Articles stored for the first time.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsapp_feed_update_seconds",
			Help:    "Time taken to update a single feed.",
			Buckets: prometheus.DefBuckets,
		}),
		lastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "newsapp_last_refresh_timestamp_seconds",
			Help: "When every feed was last refreshed.",
		}),
	}

	reg.MustRegister(
		c.updates,
		c.failures,
		c.added,
		c.latency,
		c.lastRefresh,
	)

	return c
}

func (c *Collector) FeedUpdated(feedID int64, added int, took time.Duration) {
	c.updates.Inc()
	c.added.Add(float64(added))
	c.latency.Observe(took.Seconds())
}

func (c *Collector) FeedFailed(feedID int64, err error) {
	c.failures.WithLabelValues(newserrs.KindOf(err).String()).Inc()
}

func (c *Collector) RefreshCompleted(at time.Time) {
	c.lastRefresh.Set(float64(at.Unix()))
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
