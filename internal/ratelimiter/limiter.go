package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/medtrack/notify/internal/domain"
)

// TypeLimiters holds one token bucket limiter per notification type.
// Each limiter enforces a steady-state rate (e.g. 50 tokens/sec).
// Burst is set equal to the rate so no extra burst capacity is allowed
// beyond the configured per-second maximum.
type TypeLimiters struct {
	limiters map[domain.NotificationType]*rate.Limiter
}

// New creates a TypeLimiters with ratePerSec tokens per second per type.
func New(ratePerSec int) *TypeLimiters {
	r := rate.Limit(ratePerSec)
	burst := ratePerSec

	return &TypeLimiters{
		limiters: map[domain.NotificationType]*rate.Limiter{
			domain.TypeExpiryWarning: rate.NewLimiter(r, burst),
			domain.TypeLowStock:      rate.NewLimiter(r, burst),
			domain.TypeOutOfStock:    rate.NewLimiter(r, burst),
			domain.TypeReminder:      rate.NewLimiter(r, burst),
		},
	}
}

// Wait blocks until the type's limiter grants a token. Called by each
// consumer worker immediately before handing the message to the mailer.
// Returns a non-nil error only if ctx is cancelled while waiting.
// Unknown types pass through unthrottled; validation rejects them later.
func (tl *TypeLimiters) Wait(ctx context.Context, t domain.NotificationType) error {
	l, ok := tl.limiters[t]
	if !ok {
		return nil
	}
	return l.Wait(ctx)
}
