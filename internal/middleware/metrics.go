package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VotesCast counts ledger casts by premium flag ("true"/"false").
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backendsn_votes_cast_total",
		Help: "Total number of votes recorded by the ledger",
	}, []string{"premium"})

	// VotesRetracted counts successful vote retractions.
	VotesRetracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backendsn_votes_retracted_total",
		Help: "Total number of votes retracted",
	})

	// SessionsCompromised counts refresh-token reuse detections.
	SessionsCompromised = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backendsn_sessions_compromised_total",
		Help: "Total number of refresh-token reuse detections",
	})

	// TokensSwept counts refresh-token rows removed by the periodic sweep.
	TokensSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backendsn_tokens_swept_total",
		Help: "Total number of refresh-token records deleted by the sweep",
	})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backendsn_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)

// InitMetrics creates the fiberprometheus middleware for HTTP-level metrics.
func InitMetrics(service string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(service)
}

// MetricsMiddleware adapts the fiberprometheus instance into a fiber handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
