package httpclient

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerSettings configures the optional circuit breaker.
type BreakerSettings struct {
	Name        string
	MaxFailures uint32        // consecutive failures before opening
	OpenTimeout time.Duration // how long the breaker stays open
}

func newBreaker(s BreakerSettings, log *zap.Logger) *gobreaker.CircuitBreaker[*rawResponse] {
	if s.Name == "" {
		s.Name = "storefront-api"
	}
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	return gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		// Only transport failures and 5xx count against the backend.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var httpErr *HTTPError
			return errors.As(err, &httpErr) && httpErr.StatusCode < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit_breaker_state_change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
