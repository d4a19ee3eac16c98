// Package ratelimit implements the dual leaky-bucket budget that governs
// every call to the remote completion service: one bucket for tokens per
// minute, one for requests per minute. Both refill continuously.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const minWait = 25 * time.Millisecond

// Limiter is an explicit, injectable budget handle shared by all in-flight
// batches of one pipeline instance. The zero value is not usable; construct
// with New.
type Limiter struct {
	mu       sync.Mutex
	tokens   float64
	requests float64
	last     time.Time

	tokensPerSec   float64
	requestsPerSec float64
	maxTokens      float64
	maxRequests    float64

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a limiter with both buckets full. Restarting the process
// resets to a full budget, which is the conservative direction.
func New(tokensPerMinute, requestsPerMinute int) *Limiter {
	l := &Limiter{
		tokens:         float64(tokensPerMinute),
		requests:       float64(requestsPerMinute),
		tokensPerSec:   float64(tokensPerMinute) / 60,
		requestsPerSec: float64(requestsPerMinute) / 60,
		maxTokens:      float64(tokensPerMinute),
		maxRequests:    float64(requestsPerMinute),
		now:            time.Now,
		sleep:          sleepCtx,
	}
	l.last = l.now()
	return l
}

// Reserve blocks until both buckets can cover the request, then debits
// tokens and one request credit atomically. The check and the debit share
// one critical section so concurrent callers cannot over-admit.
func (l *Limiter) Reserve(ctx context.Context, tokens int) error {
	need := float64(tokens)
	for {
		l.mu.Lock()
		l.refillLocked()
		// A single request larger than the whole bucket would never be
		// admitted; let it through when the bucket is full.
		capped := need
		if capped > l.maxTokens {
			capped = l.maxTokens
		}
		if l.tokens >= capped && l.requests >= 1 {
			l.tokens -= capped
			l.requests--
			l.mu.Unlock()
			return nil
		}
		wait := l.waitLocked(capped)
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Available reports the current bucket levels after a refill. Intended for
// logging and tests.
func (l *Limiter) Available() (tokens, requests float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked()
	return l.tokens, l.requests
}

func (l *Limiter) refillLocked() {
	now := l.now()
	elapsed := now.Sub(l.last).Seconds()
	if elapsed <= 0 {
		return
	}
	l.tokens += elapsed * l.tokensPerSec
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.requests += elapsed * l.requestsPerSec
	if l.requests > l.maxRequests {
		l.requests = l.maxRequests
	}
	l.last = now
}

// waitLocked returns the larger of the two refill times implied by the
// current deficits. Buckets only ever refill, so repeated waiting converges.
func (l *Limiter) waitLocked(need float64) time.Duration {
	var wait time.Duration
	if l.tokens < need && l.tokensPerSec > 0 {
		deficit := need - l.tokens
		wait = time.Duration(deficit / l.tokensPerSec * float64(time.Second))
	}
	if l.requests < 1 && l.requestsPerSec > 0 {
		deficit := 1 - l.requests
		w := time.Duration(deficit / l.requestsPerSec * float64(time.Second))
		if w > wait {
			wait = w
		}
	}
	if wait < minWait {
		wait = minWait
	}
	return wait
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
