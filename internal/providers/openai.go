package providers

import (
	"context"
	"errors"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/ChamsBouzaiene/mdrun/internal/engine"
)

// OpenAIClient implements engine.LLMClient for OpenAI and every
// OpenAI-compatible endpoint.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	baseURL string
}

// NewOpenAIClient creates a client. An empty baseURL targets api.openai.com.
func NewOpenAIClient(apiKey, modelName, baseURL string) (*OpenAIClient, error) {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(config),
		model:   modelName,
		baseURL: baseURL,
	}, nil
}

// Complete sends the prompt as a single user message.
func (c *OpenAIClient) Complete(ctx context.Context, req engine.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	creq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: req.Prompt,
		}},
	}
	if req.MaxTokens > 0 {
		creq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		temperature := req.Temperature
		creq.Temperature = &temperature
	}

	resp, err := c.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		httpStatus, retryAfter := extractErrorMetadata(err)
		return "", engine.WrapLLMError(err, httpStatus, retryAfter)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}
