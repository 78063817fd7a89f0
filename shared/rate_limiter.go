package shared

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// HTTPRequestRateLimiter spaces outbound requests by a minimum delay.
// A zero delay never blocks.
type HTTPRequestRateLimiter struct {
	limiter      *rate.Limiter
	minimumDelay time.Duration
	requestCount atomic.Int64
}

// NewHTTPRequestRateLimiter creates a new rate limiter with the specified minimum delay
func NewHTTPRequestRateLimiter(minimumDelay time.Duration) *HTTPRequestRateLimiter {
	limit := rate.Inf
	if minimumDelay > 0 {
		limit = rate.Every(minimumDelay)
	}
	return &HTTPRequestRateLimiter{
		limiter:      rate.NewLimiter(limit, 1),
		minimumDelay: minimumDelay,
	}
}

// Wait blocks until the next request is allowed or ctx is done
func (limiter *HTTPRequestRateLimiter) Wait(ctx context.Context) error {
	reservationStart := time.Now()
	if err := limiter.limiter.Wait(ctx); err != nil {
		return err
	}

	count := limiter.requestCount.Add(1)
	if waited := time.Since(reservationStart); waited > time.Millisecond {
		logrus.WithFields(logrus.Fields{
			"component":     "HTTPRequestRateLimiter",
			"waited":        waited,
			"minimum_delay": limiter.minimumDelay,
			"request_count": count,
		}).Debug("Enforced rate limit delay")
	}
	return nil
}

// GetRequestCount returns the total number of requests let through
func (limiter *HTTPRequestRateLimiter) GetRequestCount() int64 {
	return limiter.requestCount.Load()
}
