package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/tribunal/internal/model"
)

func TestRegisterDefaults_EnvOverrides(t *testing.T) {
	t.Setenv("TRIBUNAL_LLM_PROVIDER", "ollama")
	t.Setenv("TRIBUNAL_DELIBERATION_RUN_TIMEOUT", "10m")
	t.Setenv("TRIBUNAL_DELIBERATION_MAX_BRANCHES", "2")

	v := viper.New()
	v.SetEnvPrefix("TRIBUNAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerDefaults(v, model.DefaultConfig())

	cfg := model.DefaultConfig()
	require.NoError(t, v.Unmarshal(cfg))

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 10*time.Minute, cfg.Deliberation.RunTimeout)
	assert.Equal(t, 2, cfg.Deliberation.MaxBranches)

	// untouched keys keep their defaults
	defaults := model.DefaultConfig()
	assert.Equal(t, defaults.Deliberation.FraudScoreThreshold, cfg.Deliberation.FraudScoreThreshold)
	assert.Equal(t, defaults.Ledger.ProofCacheTTL, cfg.Ledger.ProofCacheTTL)
	assert.Equal(t, defaults.Store.Path, cfg.Store.Path)
}

func TestApplyProviderEnv(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY":          "sk-openai",
		"ANTHROPIC_API_KEY":       "sk-ant",
		"OLLAMA_BASE_URL":         "http://ollama:11434",
		"TRIBUNAL_LEDGER_API_KEY": "ledger-key",
	}
	getenv := func(k string) string { return env[k] }

	cfg := model.DefaultConfig()
	applyProviderEnv(cfg, getenv)
	assert.Equal(t, "sk-openai", cfg.LLM.APIKey)
	assert.Equal(t, "ledger-key", cfg.Ledger.APIKey)

	cfg = model.DefaultConfig()
	cfg.LLM.Provider = "claude"
	applyProviderEnv(cfg, getenv)
	assert.Equal(t, "sk-ant", cfg.LLM.APIKey)

	cfg = model.DefaultConfig()
	cfg.LLM.Provider = "ollama"
	applyProviderEnv(cfg, getenv)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.Equal(t, "http://ollama:11434", cfg.LLM.BaseURL)

	// explicit config wins over the environment
	cfg = model.DefaultConfig()
	cfg.LLM.APIKey = "from-file"
	applyProviderEnv(cfg, getenv)
	assert.Equal(t, "from-file", cfg.LLM.APIKey)
}

func TestDefaultConfigFile_ParsesBack(t *testing.T) {
	data, err := defaultConfigFile()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Tribunal Configuration File"))

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, *model.DefaultConfig(), cfg)
}

func TestMasked(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "sk-1234567890"
	cfg.Ledger.APIKey = "short"

	m := masked(cfg)
	assert.Equal(t, "sk-1****", m.LLM.APIKey)
	assert.Equal(t, "****", m.Ledger.APIKey)
	assert.Equal(t, "sk-1234567890", cfg.LLM.APIKey, "original must not be modified")
	assert.Empty(t, maskSecret(""))
}
