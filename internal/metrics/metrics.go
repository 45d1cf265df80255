// Package metrics counts what a run did and can push the result to a
// Prometheus Pushgateway, since the process exits after each run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder is what the pipeline components report to.
type Recorder interface {
	RecordFetch(duration time.Duration, err error)
	RecordNewsItems(count int)
	RecordUpdate(kind string)
	RecordDeliveryAttempt()
	RecordNotification(result string)
}

// Notification results.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

type Collector struct {
	registry         *prometheus.Registry
	fetchDuration    prometheus.Histogram
	fetchFailures    prometheus.Counter
	newsItems        prometheus.Counter
	updates          *prometheus.CounterVec
	deliveryAttempts prometheus.Counter
	notifications    *prometheus.CounterVec
}

// NewCollector creates the run metrics on a private registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "invader_fetch_duration_seconds",
			Help:    "Time spent fetching and parsing the news page.",
			Buckets: prometheus.DefBuckets,
		}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invader_fetch_failures_total",
			Help: "News page fetches that failed.",
		}),
		newsItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invader_news_items_total",
			Help: "News items extracted from the page.",
		}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invader_updates_total",
			Help: "Classified updates by kind.",
		}, []string{"kind"}),
		deliveryAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invader_delivery_attempts_total",
			Help: "Broker connection attempts made to deliver notifications.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invader_notifications_total",
			Help: "Notifications by final result.",
		}, []string{"result"}),
	}

	c.registry.MustRegister(
		c.fetchDuration,
		c.fetchFailures,
		c.newsItems,
		c.updates,
		c.deliveryAttempts,
		c.notifications,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) RecordFetch(duration time.Duration, err error) {
	c.fetchDuration.Observe(duration.Seconds())
	if err != nil {
		c.fetchFailures.Inc()
	}
}

func (c *Collector) RecordNewsItems(count int) {
	c.newsItems.Add(float64(count))
}

func (c *Collector) RecordUpdate(kind string) {
	c.updates.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordDeliveryAttempt() {
	c.deliveryAttempts.Inc()
}

func (c *Collector) RecordNotification(result string) {
	c.notifications.WithLabelValues(result).Inc()
}

// Push sends the current values to the Pushgateway at url under job.
func (c *Collector) Push(url, job string) error {
	if err := push.New(url, job).Gatherer(c.registry).Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordFetch(time.Duration, error) {}
func (Nop) RecordNewsItems(int)              {}
func (Nop) RecordUpdate(string)              {}
func (Nop) RecordDeliveryAttempt()           {}
func (Nop) RecordNotification(string)        {}
