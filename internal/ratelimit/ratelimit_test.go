package ratelimit

import (
	"context"
	"testing"
	"time"
)

// fakeClock advances only when the limiter sleeps, so tests exercise the
// wait math without real delays.
type fakeClock struct {
	t time.Time
}

func newFakeLimiter(tokensPerMin, requestsPerMin int) (*Limiter, *fakeClock) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	l := New(tokensPerMin, requestsPerMin)
	l.now = func() time.Time { return clk.t }
	l.last = clk.t
	l.sleep = func(_ context.Context, d time.Duration) error {
		clk.t = clk.t.Add(d)
		return nil
	}
	return l, clk
}

func TestReserve_DebitsBothBuckets(t *testing.T) {
	l, _ := newFakeLimiter(600, 60)

	if err := l.Reserve(context.Background(), 100); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	tokens, requests := l.Available()
	if tokens != 500 {
		t.Fatalf("expected 500 tokens left, got %v", tokens)
	}
	if requests != 59 {
		t.Fatalf("expected 59 requests left, got %v", requests)
	}
}

func TestReserve_WaitsForTokenRefill(t *testing.T) {
	l, clk := newFakeLimiter(600, 600)

	if err := l.Reserve(context.Background(), 600); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	start := clk.t
	// Bucket is empty; 300 tokens refill in 30s at 10 tokens/sec.
	if err := l.Reserve(context.Background(), 300); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	waited := clk.t.Sub(start)
	if waited < 29*time.Second || waited > 31*time.Second {
		t.Fatalf("expected ~30s wait, got %v", waited)
	}
}

func TestReserve_WaitsForRequestCredit(t *testing.T) {
	l, clk := newFakeLimiter(60000, 60)

	if err := l.Reserve(context.Background(), 1); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	l.mu.Lock()
	l.requests = 0
	l.mu.Unlock()

	start := clk.t
	if err := l.Reserve(context.Background(), 1); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	// One request credit refills in 1s at 60 req/min.
	if waited := clk.t.Sub(start); waited < 900*time.Millisecond || waited > 1100*time.Millisecond {
		t.Fatalf("expected ~1s wait, got %v", waited)
	}
}

func TestReserve_OversizedRequestAdmittedAtFullBucket(t *testing.T) {
	l, _ := newFakeLimiter(100, 10)

	if err := l.Reserve(context.Background(), 5000); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	tokens, _ := l.Available()
	if tokens != 0 {
		t.Fatalf("expected drained bucket, got %v tokens", tokens)
	}
}

func TestReserve_NeverExceedsBudgetWithinWindow(t *testing.T) {
	l, clk := newFakeLimiter(600, 1000)

	windowStart := clk.t
	debited := 0
	for clk.t.Sub(windowStart) < time.Minute {
		if err := l.Reserve(context.Background(), 100); err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if clk.t.Sub(windowStart) < time.Minute {
			debited += 100
		}
	}
	// Initial full bucket plus one minute of refill, with at most one
	// in-flight request of slack.
	if debited > 600+600+100 {
		t.Fatalf("debited %d tokens inside one window", debited)
	}
}

func TestReserve_CancelledContext(t *testing.T) {
	l := New(60, 60)
	l.mu.Lock()
	l.tokens = 0
	l.requests = 0
	l.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Reserve(ctx, 10); err == nil {
		t.Fatalf("expected context error")
	}
}
