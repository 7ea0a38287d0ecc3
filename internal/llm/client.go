// Package llm provides chat-completion clients for the providers the agent
// can run against. Each provider gets its own raw net/http client behind the
// shared Client interface; the coordinator is indifferent to which provider
// serializes the transcript, treating role mapping as a concern of the
// client.
package llm

import (
	"context"
	"fmt"
	"time"

	"mudmind/internal/transcript"
)

// Client is the chat-completion boundary: an ordered transcript in, a single
// text blob out. Implementations own their own timeouts and retries; a
// returned error means the turn failed and the coordinator falls back.
type Client interface {
	Complete(ctx context.Context, msgs []transcript.Message) (string, error)
}

// Provider names a supported backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Config holds the provider-independent knobs.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

const (
	defaultMaxTokens  = 1024
	defaultTimeout    = 2 * time.Minute
	maxRetries        = 3
	minRequestSpacing = 100 * time.Millisecond
)

// New builds a client for the named provider.
func New(provider Provider, cfg Config) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

// ensureDeadline applies the client timeout when the caller's context has no
// deadline of its own.
func ensureDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, has := ctx.Deadline(); has {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * 500 * time.Millisecond
}
