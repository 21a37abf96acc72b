package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "open-meteo", cfg.Weather.Provider)
	assert.Equal(t, 10, cfg.Weather.Timeout)
	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 80, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 4, cfg.RAG.TopK)
	assert.True(t, cfg.RAG.RetrievalEnabled())
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 9090
rag:
  top_k: 2
  source_dir: /srv/kb
  embedder:
    type: hash
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2, cfg.RAG.TopK)
	assert.Equal(t, "/srv/kb", cfg.RAG.SourceDir)
	assert.Equal(t, "hash", cfg.RAG.Embedder.Type)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched keys keep their defaults
	assert.Equal(t, 80, cfg.RAG.ChunkOverlap)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvironmentAliases(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DISABLE_RAG", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.True(t, cfg.RAG.Disabled)
	assert.False(t, cfg.RAG.RetrievalEnabled())
}

func TestLoadPrefixedEnvironment(t *testing.T) {
	t.Setenv("WRAG_SERVER_PORT", "7000")
	t.Setenv("WRAG_RAG_TOP_K", "6")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 6, cfg.RAG.TopK)
}

func TestActiveService(t *testing.T) {
	cfg := NewDefaultConfig()

	svc, ok := cfg.Weather.ActiveService()
	require.True(t, ok)
	assert.Equal(t, "open-meteo", svc.Type)

	cfg.Weather.Provider = "weather-api"
	_, ok = cfg.Weather.ActiveService()
	assert.False(t, ok, "weather-api is disabled by default")
}

func TestGetConfigFallsBackToDefaults(t *testing.T) {
	assert.NotNil(t, GetConfig())

	cfg := NewDefaultConfig()
	cfg.Environment = "test"
	SetConfig(cfg)
	assert.Equal(t, "test", GetConfig().Environment)
}
