package engine

import (
	"context"
	"strings"
	"time"
)

// Model call defaults.
const (
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.7
)

// Model wraps an LLMClient with the request knobs used for every call.
type Model struct {
	Client      LLMClient
	Name        string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Retry       RetryPolicy
	Hooks       Hook
}

// NewModel returns a Model with default request settings.
func NewModel(client LLMClient, name string) *Model {
	return &Model{
		Client:      client,
		Name:        name,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		Timeout:     LongTimeout,
		Retry:       DefaultRetryPolicy(),
	}
}

// Call sends prompt and returns the trimmed reply. Failures never escape:
// they come back as a reply starting with ErrorReplyPrefix.
func (m *Model) Call(ctx context.Context, prompt string) string {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = LongTimeout
	}
	req := CompletionRequest{
		Model:       m.Name,
		Prompt:      prompt,
		MaxTokens:   m.MaxTokens,
		Temperature: m.Temperature,
	}

	reply, err := RetryWithPolicy(ctx, m.Retry,
		func(ctx context.Context) (string, error) {
			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return m.Client.Complete(cctx, req)
		},
		ClassifyLLMError,
		func(attempt int, delay time.Duration, err error) {
			if m.Hooks != nil {
				m.Hooks.OnRetryAttempt(ctx, attempt, delay, err)
			}
		},
	)
	if err != nil {
		return ErrorReplyPrefix + "LLM call failed: " + err.Error()
	}
	return strings.TrimSpace(reply)
}
