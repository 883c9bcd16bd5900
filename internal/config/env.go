package config

import (
	"os"
	"strings"
)

// providerEnv names the variables a provider reads its key, model and base URL from.
var providerEnv = map[string][3]string{
	"openai":    {"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL"},
	"anthropic": {"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", ""},
	"kimi":      {"KIMI_API_KEY", "KIMI_MODEL", "KIMI_BASE_URL"},
	"gemini":    {"GEMINI_API_KEY", "GEMINI_MODEL", ""},
	"lmstudio":  {"LMSTUDIO_API_KEY", "LMSTUDIO_MODEL", "LMSTUDIO_BASE_URL"},
	"ollama":    {"OLLAMA_API_KEY", "OLLAMA_MODEL", "OLLAMA_BASE_URL"},
	"glm":       {"GLM_API_KEY", "GLM_MODEL", ""},
	"minimax":   {"MINIMAX_API_KEY", "MINIMAX_MODEL", ""},
	"deepseek":  {"DEEPSEEK_API_KEY", "DEEPSEEK_MODEL", ""},
	"groq":      {"GROQ_API_KEY", "GROQ_MODEL", ""},
}

// ApplyToEnv exports provider settings from cfg into the environment the
// provider factory reads. Variables that are already set are kept, so the
// environment and .env files win over the config file.
func ApplyToEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	setDefaultEnv("LLM_PROVIDER", cfg.LLMProvider)

	provider := strings.ToLower(os.Getenv("LLM_PROVIDER"))
	if provider == "" {
		provider = "openai"
	}
	if cfg.LLMProvider != "" && !strings.EqualFold(cfg.LLMProvider, provider) {
		// the file describes a different provider than the one selected
		return
	}
	names, ok := providerEnv[provider]
	if !ok {
		return
	}
	setDefaultEnv(names[0], cfg.APIKey)
	setDefaultEnv(names[1], cfg.Model)
	if names[2] != "" {
		setDefaultEnv(names[2], cfg.BaseURL)
	}
}

func setDefaultEnv(name, value string) {
	if value == "" {
		return
	}
	if _, set := os.LookupEnv(name); !set {
		os.Setenv(name, value)
	}
}
