package wrike

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the optional circuit breaker around Wrike
// calls. Transport errors and 5xx answers count as failures.
type BreakerSettings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
}

func newBreaker(settings BreakerSettings, logger *slog.Logger) *gobreaker.CircuitBreaker[response] {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	halfOpen := settings.HalfOpenRequests
	if halfOpen == 0 {
		halfOpen = 1
	}

	return gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        "wrike",
		MaxRequests: halfOpen,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}
