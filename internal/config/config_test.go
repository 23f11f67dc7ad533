package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "AI_PROVIDER", "AI_TEMPERATURE", "AI_TOP_P", "AI_MAX_TOKENS",
		"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "Model",
		"GEMINI_API_KEY", "API_KEY", "GEMINI_MODEL",
		"STORAGE_BACKEND", "STORAGE_PATH", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.GeminiModel)
	assert.InDelta(t, 0.8, cfg.AI.Temperature, 1e-9)
	assert.InDelta(t, 0.9, cfg.AI.TopP, 1e-9)
	assert.Nil(t, cfg.AI.MaxTokens)
	assert.False(t, cfg.AI.Enabled())
	assert.Equal(t, StorageBolt, cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadGeminiFallsBackToAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "legacy-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.AI.GeminiAPIKey)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadArkRequiresModel(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_PROVIDER", "ark")
	t.Setenv("ARK_API_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.AI.Enabled())

	t.Setenv("Model", "ep-123")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":            "80 80",
		"AI_PROVIDER":     "openai",
		"AI_TEMPERATURE":  "warm",
		"AI_TOP_P":        "1.5",
		"AI_MAX_TOKENS":   "many",
		"STORAGE_BACKEND": "s3",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
