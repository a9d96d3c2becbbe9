package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline metrics. Failures in the notification and cache legs are never
// surfaced to the mutating request, so these counters are the only place
// they become visible.
var (
	// EventsPublished counts envelopes appended to the event log, by topic.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airtrack_events_published_total",
		Help: "Envelopes successfully appended to the event log, by topic.",
	}, []string{"topic"})

	// PublishFailures counts envelopes dropped after exhausting retries.
	PublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airtrack_publish_failures_total",
		Help: "Envelopes dropped after exhausting publish retries, by topic.",
	}, []string{"topic"})

	// PublishRetries counts individual publish retry attempts.
	PublishRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "airtrack_publish_retries_total",
		Help: "Publish attempts that failed and were retried.",
	})

	// CacheErrors counts failed cache operations, by operation.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airtrack_cache_errors_total",
		Help: "Failed cache operations, by operation (get, upsert, invalidate).",
	}, []string{"op"})

	// MalformedEnvelopes counts consumed messages that failed to decode.
	MalformedEnvelopes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airtrack_malformed_envelopes_total",
		Help: "Consumed messages skipped because they failed to decode, by topic.",
	}, []string{"topic"})

	// EventsBroadcast counts envelopes fanned out to subscribers, by channel.
	EventsBroadcast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airtrack_events_broadcast_total",
		Help: "Envelopes broadcast to live subscribers, by channel.",
	}, []string{"channel"})

	// DroppedSends counts subscriber deliveries dropped due to full buffers.
	DroppedSends = promauto.NewCounter(prometheus.CounterOpts{
		Name: "airtrack_subscriber_dropped_sends_total",
		Help: "Deliveries dropped because a subscriber send buffer was full.",
	})

	// ConnectedSubscribers tracks the number of live subscriber connections.
	ConnectedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "airtrack_connected_subscribers",
		Help: "Currently connected live-update subscribers.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
