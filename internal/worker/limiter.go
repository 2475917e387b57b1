package worker

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter throttles store queries. A nil Limiter or a non-positive rate never blocks.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter allowing queriesPerSecond with the given burst.
func NewLimiter(queriesPerSecond float64, burst int) *Limiter {
	if queriesPerSecond <= 0 {
		return &Limiter{}
	}
	if burst <= 0 {
		burst = 5
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(queriesPerSecond), burst)}
}

// Wait blocks until a query may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// Allow reports whether a query may proceed now, consuming a token if so.
func (l *Limiter) Allow() bool {
	if l == nil || l.limiter == nil {
		return true
	}
	return l.limiter.Allow()
}

// Limited reports whether the limiter enforces a rate.
func (l *Limiter) Limited() bool { return l != nil && l.limiter != nil }
