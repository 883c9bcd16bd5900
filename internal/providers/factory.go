package providers

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ChamsBouzaiene/mdrun/internal/engine"
)

// compatible describes a provider reached through the OpenAI-compatible API.
type compatible struct {
	keyEnv       string
	modelEnv     string
	baseURLEnv   string
	defaultModel string
	defaultURL   string
	// defaultKey is used by local servers that accept any key.
	defaultKey string
}

var compatibleProviders = map[string]compatible{
	"openai":   {"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "gpt-4o-mini", "", ""},
	"kimi":     {"KIMI_API_KEY", "KIMI_MODEL", "KIMI_BASE_URL", "kimi-k2-250711", "https://ark.ap-southeast.bytepluses.com/api/v3", ""},
	"gemini":   {"GEMINI_API_KEY", "GEMINI_MODEL", "", "gemini-1.5-flash", "https://generativelanguage.googleapis.com/v1beta/openai", ""},
	"lmstudio": {"LMSTUDIO_API_KEY", "LMSTUDIO_MODEL", "LMSTUDIO_BASE_URL", "local-model", "http://localhost:1234/v1", "lm-studio"},
	"ollama":   {"OLLAMA_API_KEY", "OLLAMA_MODEL", "OLLAMA_BASE_URL", "llama3.1", "http://localhost:11434/v1", "ollama"},
	"glm":      {"GLM_API_KEY", "GLM_MODEL", "", "glm-4-plus", "https://open.bigmodel.cn/api/paas/v4", ""},
	"minimax":  {"MINIMAX_API_KEY", "MINIMAX_MODEL", "", "abab6.5s-chat", "https://api.minimax.chat/v1", ""},
	"deepseek": {"DEEPSEEK_API_KEY", "DEEPSEEK_MODEL", "", "deepseek-chat", "https://api.deepseek.com/v1", ""},
	"groq":     {"GROQ_API_KEY", "GROQ_MODEL", "", "llama-3.1-70b-versatile", "https://api.groq.com/openai/v1", ""},
}

// SupportedProviders lists the accepted LLM_PROVIDER values.
func SupportedProviders() []string {
	names := []string{"anthropic"}
	for name := range compatibleProviders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewLLMClientFromEnv creates an engine.LLMClient from LLM_PROVIDER (default
// openai) and the provider's key/model variables. A non-empty modelOverride
// wins over the environment. It returns the client and the model name in use.
func NewLLMClientFromEnv(_ context.Context, modelOverride string) (engine.LLMClient, string, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	if provider == "" {
		provider = "openai"
	}

	if provider == "anthropic" {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		modelName := pick(modelOverride, os.Getenv("ANTHROPIC_MODEL"), "claude-3-5-sonnet-latest")
		client, err := NewAnthropicClient(apiKey, modelName)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Anthropic client: %w", err)
		}
		return client, modelName, nil
	}

	p, ok := compatibleProviders[provider]
	if !ok {
		return nil, "", fmt.Errorf("unknown LLM_PROVIDER: %s (supported: %s)", provider, strings.Join(SupportedProviders(), ", "))
	}

	apiKey := pick(os.Getenv(p.keyEnv), p.defaultKey)
	if apiKey == "" {
		return nil, "", fmt.Errorf("%s not set", p.keyEnv)
	}
	modelName := pick(modelOverride, os.Getenv(p.modelEnv), p.defaultModel)
	baseURL := p.defaultURL
	if p.baseURLEnv != "" {
		baseURL = pick(os.Getenv(p.baseURLEnv), p.defaultURL)
	}

	client, err := NewOpenAIClient(apiKey, modelName, baseURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create %s client: %w", provider, err)
	}
	return client, modelName, nil
}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
