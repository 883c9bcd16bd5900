package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"MDRUN_ROOT", "MDRUN_MODEL", "MDRUN_SANDBOX_MODE", "MDRUN_DOCKER_IMAGE",
		"MDRUN_MAX_ITERATIONS", "MDRUN_MAX_DEPTH", "MDRUN_LLM_RETRIES"} {
		t.Setenv(name, "")
	}
}

func TestManagerRoundTrip(t *testing.T) {
	m := NewManagerAt(filepath.Join(t.TempDir(), "mdrun"))
	assert.False(t, m.Exists())

	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)

	want := &Config{LLMProvider: "anthropic", APIKey: "k", MaxIterations: 5}
	require.NoError(t, m.Save(want))
	assert.True(t, m.Exists())

	info, err := os.Stat(m.GetConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestManagerRejectsBadJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{"), 0600))
	_, err := NewManagerAt(dir).Load()
	assert.ErrorContains(t, err, "failed to parse config json")
}

func TestResolveDefaults(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	s, err := Resolve(nil, Flags{Root: root})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxIterations, s.MaxIterations)
	assert.Equal(t, DefaultMaxDepth, s.MaxDepth)
	assert.Equal(t, 0, s.LLMRetries)
	assert.Equal(t, filepath.Join(root, "workspace"), s.Workspace)
	assert.Equal(t, filepath.Join(root, "system", "SystemAgent.md"), s.SystemSpec)
	assert.Equal(t, filepath.Join(root, "system", "SmartLibrary.md"), s.Manifest)
	assert.Equal(t, filepath.Join(root, "components"), s.ComponentsDir)
}

func TestResolvePrecedence(t *testing.T) {
	clearEnv(t)
	file := &Config{Model: "file-model", MaxIterations: 4, MaxDepth: 2, SandboxMode: "docker"}

	s, err := Resolve(file, Flags{})
	require.NoError(t, err)
	assert.Equal(t, "file-model", s.Model)
	assert.Equal(t, 4, s.MaxIterations)
	assert.Equal(t, "docker", s.SandboxMode)

	t.Setenv("MDRUN_MODEL", "env-model")
	t.Setenv("MDRUN_MAX_ITERATIONS", "6")
	t.Setenv("MDRUN_LLM_RETRIES", "2")
	s, err = Resolve(file, Flags{})
	require.NoError(t, err)
	assert.Equal(t, "env-model", s.Model)
	assert.Equal(t, 6, s.MaxIterations)
	assert.Equal(t, 2, s.MaxDepth)
	assert.Equal(t, 2, s.LLMRetries)

	s, err = Resolve(file, Flags{Model: "flag-model", MaxIterations: 8, SandboxMode: "host"})
	require.NoError(t, err)
	assert.Equal(t, "flag-model", s.Model)
	assert.Equal(t, 8, s.MaxIterations)
	assert.Equal(t, "host", s.SandboxMode)
}

func TestResolveRejectsBadNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("MDRUN_MAX_ITERATIONS", "zero")
	_, err := Resolve(nil, Flags{})
	assert.ErrorContains(t, err, "MDRUN_MAX_ITERATIONS")

	t.Setenv("MDRUN_MAX_ITERATIONS", "")
	t.Setenv("MDRUN_MAX_DEPTH", "0")
	_, err = Resolve(nil, Flags{})
	assert.ErrorContains(t, err, "MDRUN_MAX_DEPTH")
}

func TestApplyToEnvKeepsExistingValues(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	os.Unsetenv("LLM_PROVIDER")
	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	t.Setenv("ANTHROPIC_MODEL", "")
	os.Unsetenv("ANTHROPIC_MODEL")

	ApplyToEnv(&Config{LLMProvider: "anthropic", APIKey: "from-file", Model: "claude-x"})

	assert.Equal(t, "anthropic", os.Getenv("LLM_PROVIDER"))
	assert.Equal(t, "from-env", os.Getenv("ANTHROPIC_API_KEY"))
	assert.Equal(t, "claude-x", os.Getenv("ANTHROPIC_MODEL"))
}

func TestApplyToEnvSkipsOtherProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")

	ApplyToEnv(&Config{LLMProvider: "openai", APIKey: "sk"})

	assert.Equal(t, "ollama", os.Getenv("LLM_PROVIDER"))
	_, set := os.LookupEnv("OPENAI_API_KEY")
	assert.False(t, set)
}
