package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/ChamsBouzaiene/mdrun/internal/engine"
)

// AnthropicClient implements engine.LLMClient using the Anthropic messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey, modelName string) (*AnthropicClient, error) {
	return &AnthropicClient{
		client: anthropic.NewClient(apiKey),
		model:  modelName,
	}, nil
}

// Complete sends the prompt as a single user message and joins the text blocks
// of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, req engine.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = engine.DefaultMaxTokens
	}
	temperature := req.Temperature

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(model),
		Messages: []anthropic.Message{{
			Role:    anthropic.RoleUser,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(req.Prompt)},
		}},
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		httpStatus, retryAfter := extractErrorMetadata(err)
		return "", engine.WrapLLMError(err, httpStatus, retryAfter)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text.WriteString(*block.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.New("empty response from Anthropic")
	}
	return text.String(), nil
}
