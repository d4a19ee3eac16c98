// Package openaichat implements the remote completion port against an
// OpenAI-compatible chat completions endpoint. Its one real job beyond the
// HTTP call is mapping service failures into the pipeline's error
// taxonomy: transient, permanent, or context overflow.
package openaichat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/amirhoseinsh/youtube-highlighter/internal/completion"
	"github.com/amirhoseinsh/youtube-highlighter/internal/ports"
)

const requestTimeout = 90 * time.Second

type Adapter struct {
	client *openai.Client
	key    string
}

// New builds the adapter. baseURL may be empty for the default endpoint;
// anything else must pass the allow-list check in ValidateBaseURL first.
func New(apiKey, baseURL string) *Adapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = normalizeBaseURL(baseURL)
	}
	return &Adapter{client: openai.NewClientWithConfig(cfg), key: apiKey}
}

func (a *Adapter) CreateCompletion(ctx context.Context, req ports.CompletionRequest) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return "", a.classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", completion.Permanent(errors.New("openaichat: response has no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps client errors into the taxonomy. Unrecognized errors with
// no HTTP status are treated as network-level and therefore transient.
func (a *Adapter) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if isContextOverflow(apiErr) {
			return fmt.Errorf("%w: %s", completion.ErrContextOverflow, redactSecrets(apiErr.Message, a.key))
		}
		if isTransientStatus(apiErr.HTTPStatusCode) {
			return completion.Transient(err)
		}
		return completion.Permanent(err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if isTransientStatus(reqErr.HTTPStatusCode) {
			return completion.Transient(err)
		}
		return completion.Permanent(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return completion.Transient(fmt.Errorf("openaichat: timeout after %s: %w", requestTimeout, err))
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return completion.Transient(err)
}

func isTransientStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func isContextOverflow(apiErr *openai.APIError) bool {
	if code, ok := apiErr.Code.(string); ok && code == "context_length_exceeded" {
		return true
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "maximum context length") ||
		strings.Contains(msg, "context length exceeded") ||
		strings.Contains(msg, "context_length_exceeded")
}
