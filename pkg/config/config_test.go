package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
llm:
  provider: openai
  api_key: sk-test
  model: gpt-4o
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, float32(0.3), cfg.LLM.Temperature)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, DefaultActionTimeout, cfg.Browser.ActionTimeout)
	assert.Equal(t, DefaultMaxSteps, cfg.Agent.MaxSteps)
	assert.Equal(t, DefaultFullPromptSteps, cfg.Agent.FullPromptSteps)
	assert.Equal(t, DefaultAnalyzeEvery, cfg.Agent.AnalyzeEvery)
	assert.Equal(t, DefaultReportEvery, cfg.Agent.ReportEvery)
	assert.Equal(t, DefaultHighWaterTokens, cfg.Compaction.HighWaterTokens)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
}

func TestParseEnvSubstitution(t *testing.T) {
	t.Setenv("BP_TEST_KEY", "sk-from-env")

	cfg, err := Parse([]byte(`
llm:
  provider: anthropic
  api_key: ${BP_TEST_KEY}
  model: claude-sonnet-4-20250514
`))
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
}

func TestParseRejectsUnsetEnvVar(t *testing.T) {
	_, err := Parse([]byte(`
llm:
  provider: openai
  api_key: ${BP_DEFINITELY_UNSET_KEY}
  model: gpt-4o
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unset environment variable")
}

func TestParseValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown provider",
			yaml: "llm:\n  provider: llama\n  api_key: k\n  model: m\n",
			want: "unknown llm provider",
		},
		{
			name: "missing model",
			yaml: "llm:\n  provider: openai\n  api_key: k\n",
			want: "model cannot be empty",
		},
		{
			name: "missing api key",
			yaml: "llm:\n  provider: openai\n  model: m\n",
			want: "api_key",
		},
		{
			name: "temperature out of range",
			yaml: "llm:\n  provider: openai\n  api_key: k\n  model: m\n  temperature: 3.5\n",
			want: "temperature",
		},
		{
			name: "sqlite without path",
			yaml: minimalConfig + "storage:\n  driver: sqlite\n",
			want: "storage path required",
		},
		{
			name: "unknown storage driver",
			yaml: minimalConfig + "storage:\n  driver: redis\n",
			want: "unknown storage driver",
		},
		{
			name: "inverted water marks",
			yaml: minimalConfig + "compaction:\n  high_water_tokens: 1000\n  low_water_tokens: 2000\n",
			want: "low_water_tokens",
		},
		{
			name: "report coarser than analyze",
			yaml: minimalConfig + "agent:\n  analyze_every: 5\n  report_every: 10\n",
			want: "report_every",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseFullConfig(t *testing.T) {
	cfg, err := Parse([]byte(`
llm:
  provider: anthropic
  api_key: sk-test
  model: claude-sonnet-4-20250514
  temperature: 0.5
  max_tokens: 8192
browser:
  headless: true
  action_timeout: 45s
agent:
  max_steps: 200
  full_prompt_steps: 30
compaction:
  high_water_tokens: 20000
  low_water_tokens: 15000
storage:
  driver: sqlite
  path: /tmp/browserpilot.db
metrics:
  enabled: true
  addr: ":9090"
`))
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, float32(0.5), cfg.LLM.Temperature)
	assert.Equal(t, 8192, cfg.LLM.MaxTokens)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 45*time.Second, cfg.Browser.ActionTimeout)
	assert.Equal(t, 200, cfg.Agent.MaxSteps)
	assert.Equal(t, 20000, cfg.Compaction.HighWaterTokens)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/browserpilot.db", cfg.Storage.Path)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalConfig), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("llm: [not: a: mapping"))
	assert.Error(t, err)
}
