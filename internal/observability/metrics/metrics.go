package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TurnsTotal counts processed user turns, labeled by the completion
	// outcome of the turn (continue, wrap_up, proceed, reprompt, terminal).
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nutrition_coach",
		Name:      "turns_total",
		Help:      "User turns processed, by outcome.",
	}, []string{"outcome"})

	// ProviderFallbackTotal counts turns answered by the deterministic
	// fallback because the response provider failed or returned nothing.
	ProviderFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nutrition_coach",
		Name:      "provider_fallback_total",
		Help:      "Turns served by the deterministic fallback responder.",
	})

	// TurnLatency observes end-to-end turn processing time in seconds.
	TurnLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nutrition_coach",
		Name:      "turn_latency_seconds",
		Help:      "End-to-end latency of a processed turn.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	})

	// SessionsFinalizedTotal counts sessions that reached a derived plan.
	SessionsFinalizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nutrition_coach",
		Name:      "sessions_finalized_total",
		Help:      "Sessions that completed profile building and derived targets.",
	})

	// RepliesSuppressedTotal counts replies where numeric content was
	// redacted by the output guard.
	RepliesSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nutrition_coach",
		Name:      "replies_suppressed_total",
		Help:      "Assistant replies with numeric targets redacted.",
	})
)

// Handler exposes the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
