// Package config resolves mdrun's runtime settings from the user's config
// file, the environment and command-line flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the user's persistent preferences.
type Config struct {
	LLMProvider   string `json:"llm_provider,omitempty"` // openai, anthropic, ollama, ...
	APIKey        string `json:"api_key,omitempty"`      // key for the selected provider
	Model         string `json:"model,omitempty"`
	BaseURL       string `json:"base_url,omitempty"` // OpenAI-compatible endpoint override
	Root          string `json:"root,omitempty"`     // directory holding system/ and components/
	SandboxMode   string `json:"sandbox_mode,omitempty"`
	DockerImage   string `json:"docker_image,omitempty"`
	MaxIterations int    `json:"max_iterations,omitempty"`
	MaxDepth      int    `json:"max_depth,omitempty"`
	LLMRetries    int    `json:"llm_retries,omitempty"`
}

// Manager handles loading and saving the configuration.
type Manager struct {
	configDir string
}

// NewManager creates a manager for os.UserConfigDir()/mdrun.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}
	return NewManagerAt(filepath.Join(configDir, "mdrun")), nil
}

// NewManagerAt creates a manager rooted at dir.
func NewManagerAt(dir string) *Manager {
	return &Manager{configDir: dir}
}

// GetConfigPath returns the absolute path to the config.json file.
func (m *Manager) GetConfigPath() string {
	return filepath.Join(m.configDir, "config.json")
}

// Load reads the configuration from disk.
// If the file does not exist, it returns an empty Config and no error.
func (m *Manager) Load() (*Config, error) {
	data, err := os.ReadFile(m.GetConfigPath())
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to disk readable by the owner only.
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(m.GetConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Exists checks if the configuration file has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.GetConfigPath())
	return !os.IsNotExist(err)
}
