package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WebhookEvents counts classified webhook deliveries by kind and outcome.
var WebhookEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chatlog_webhook_events_total",
		Help: "Webhook deliveries processed, labeled by event kind and outcome.",
	},
	[]string{"kind", "outcome"},
)

// FeedPublishes counts feed artifact publish attempts.
var FeedPublishes = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "chatlog_feed_publishes_total",
		Help: "Feed artifact publish attempts.",
	},
)

// FeedPublishFailures counts non-fatal feed publish failures.
var FeedPublishFailures = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "chatlog_feed_publish_failures_total",
		Help: "Feed artifact publishes that failed and were skipped.",
	},
)

// Commands counts slash command invocations by command name.
var Commands = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chatlog_commands_total",
		Help: "Slash command invocations, labeled by command.",
	},
	[]string{"command"},
)

// MetricsHandler exposes the Prometheus registry over HTTP.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
