package completion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirhoseinsh/youtube-highlighter/internal/ports"
)

type scriptedCompleter struct {
	calls int
	errs  []error
	out   string
}

func (s *scriptedCompleter) CreateCompletion(_ context.Context, _ ports.CompletionRequest) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	return s.out, nil
}

func newTestClient(llm ports.Completer) *Client {
	c := NewClient(llm, nil, "test-model", RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}, nil)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestComplete_RetriesTransientThenSucceeds(t *testing.T) {
	llm := &scriptedCompleter{
		errs: []error{Transient(errors.New("status 503")), Transient(errors.New("status 429"))},
		out:  "ok",
	}
	got, err := newTestClient(llm).Complete(context.Background(), "p", 10, 5)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "ok" {
		t.Fatalf("unexpected output %q", got)
	}
	if llm.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", llm.calls)
	}
}

func TestComplete_ExhaustsAttempts(t *testing.T) {
	fail := Transient(errors.New("down"))
	llm := &scriptedCompleter{errs: []error{fail, fail, fail}}
	_, err := newTestClient(llm).Complete(context.Background(), "p", 10, 5)
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if llm.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", llm.calls)
	}
}

func TestComplete_PermanentNotRetried(t *testing.T) {
	llm := &scriptedCompleter{errs: []error{Permanent(errors.New("bad request"))}}
	_, err := newTestClient(llm).Complete(context.Background(), "p", 10, 5)
	if err == nil || IsTransient(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if llm.calls != 1 {
		t.Fatalf("expected single attempt, got %d", llm.calls)
	}
}

func TestComplete_ContextOverflowNotRetried(t *testing.T) {
	llm := &scriptedCompleter{errs: []error{ErrContextOverflow}}
	_, err := newTestClient(llm).Complete(context.Background(), "p", 10, 5)
	if !IsContextOverflow(err) {
		t.Fatalf("expected context overflow, got %v", err)
	}
	if llm.calls != 1 {
		t.Fatalf("expected single attempt, got %d", llm.calls)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	if IsTransient(Permanent(errors.New("x"))) {
		t.Fatal("permanent classified as transient")
	}
	wrapped := Transient(ErrContextOverflow)
	if !IsContextOverflow(wrapped) {
		t.Fatal("wrapped overflow not detected")
	}
	if Transient(nil) != nil || Permanent(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}
