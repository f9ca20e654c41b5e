// Package pacer spaces outbound requests to a remote wiki.
package pacer

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Pacer blocks until the next outbound request may be issued.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Limiter is a token bucket with a single token refilled every delay.
// The first Wait returns immediately; each later Wait returns no sooner
// than delay after the previous one.
type Limiter struct {
	limiter *rate.Limiter
	delay   time.Duration
	waits   atomic.Int64
}

// New creates a Limiter. A delay <= 0 disables pacing.
func New(delay time.Duration) *Limiter {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, 1),
		delay:   delay,
	}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	l.waits.Add(1)
	return l.limiter.Wait(ctx)
}

// Delay returns the configured spacing between requests.
func (l *Limiter) Delay() time.Duration { return l.delay }

// Waits returns how many times Wait has been called.
func (l *Limiter) Waits() int64 { return l.waits.Load() }

type none struct{}

func (none) Wait(ctx context.Context) error { return ctx.Err() }

// None returns a Pacer that never delays. It still honours cancellation.
func None() Pacer { return none{} }
