package completion

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amirhoseinsh/youtube-highlighter/internal/ports"
	"github.com/amirhoseinsh/youtube-highlighter/internal/ratelimit"
)

// RetryPolicy bounds retries of transient failures with exponential backoff
// and symmetric jitter.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      float64
	MaxDelay    time.Duration
	// JitterFraction spreads each delay by ±fraction/2 around its nominal
	// value so concurrent batches do not retry in lockstep.
	JitterFraction float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    4,
		BaseDelay:      time.Second,
		Factor:         2.0,
		MaxDelay:       30 * time.Second,
		JitterFraction: 0.2,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = d.BaseDelay
	}
	if p.Factor <= 1 {
		p.Factor = d.Factor
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = d.MaxDelay
	}
	if p.JitterFraction <= 0 {
		p.JitterFraction = d.JitterFraction
	}
	return p
}

// Client is the retrying completion client. Every attempt, including
// retries, reserves its own slice of the shared rate budget before the
// request goes out.
type Client struct {
	llm     ports.Completer
	limiter *ratelimit.Limiter
	model   string
	policy  RetryPolicy
	log     logrus.FieldLogger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(llm ports.Completer, limiter *ratelimit.Limiter, model string, policy RetryPolicy, log logrus.FieldLogger) *Client {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Client{
		llm:     llm,
		limiter: limiter,
		model:   model,
		policy:  policy.withDefaults(),
		log:     log,
		sleep:   sleepCtx,
	}
}

func (c *Client) Model() string { return c.model }

// Complete runs one prompt against the remote model. estTokens is the
// caller's estimate of the prompt size; maxTokens bounds the reply. Both
// are charged against the token bucket.
func (c *Client) Complete(ctx context.Context, prompt string, estTokens, maxTokens int) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if c.limiter != nil {
			if err := c.limiter.Reserve(ctx, estTokens+maxTokens); err != nil {
				return "", err
			}
		}

		out, err := c.llm.CreateCompletion(ctx, ports.CompletionRequest{
			Model:       c.model,
			Prompt:      prompt,
			Temperature: 0,
			MaxTokens:   maxTokens,
		})
		if err == nil {
			return out, nil
		}
		lastErr = err

		// Context overflow is the chunker's problem, permanent errors are
		// nobody's. Neither is retried here.
		if IsContextOverflow(err) || !IsTransient(err) {
			return "", err
		}
		if attempt == c.policy.MaxAttempts-1 {
			break
		}
		delay := c.backoffDelay(attempt)
		c.log.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"max":     c.policy.MaxAttempts,
			"delay":   delay,
			"error":   err,
		}).Debug("retrying completion")
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	nominal := float64(c.policy.BaseDelay) * math.Pow(c.policy.Factor, float64(attempt))
	if nominal > float64(c.policy.MaxDelay) {
		nominal = float64(c.policy.MaxDelay)
	}
	jitter := nominal * c.policy.JitterFraction * (rand.Float64() - 0.5)
	return time.Duration(nominal + jitter)
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
