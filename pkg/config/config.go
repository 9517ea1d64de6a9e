// Package config provides configuration loading and validation for browserpilot.
// Configuration is a YAML file with ${ENV_VAR} placeholder substitution; access
// is value-based so callers cannot mutate shared settings.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// LLM provider identifiers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Storage driver identifiers.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Defaults for values omitted from the config file.
const (
	DefaultMaxSteps        = 120
	DefaultFullPromptSteps = 25
	DefaultAnalyzeEvery    = 20
	DefaultReportEvery     = 6
	DefaultActionTimeout   = 30 * time.Second

	DefaultHighWaterTokens  = 16000
	DefaultLowWaterTokens   = 12000
	DefaultSummaryMaxTokens = 1200
	DefaultKeepRecentTurns  = 8
)

// LLMConfig configures the reasoning-engine client.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "openai" or "anthropic"
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// BrowserConfig configures the browser automation backend.
type BrowserConfig struct {
	CDPEndpoint   string        `yaml:"cdp_endpoint,omitempty"` // attach to a running browser when set
	Headless      bool          `yaml:"headless"`
	ActionTimeout time.Duration `yaml:"action_timeout"`
}

// AgentConfig configures the orchestration graph.
type AgentConfig struct {
	MaxSteps        int `yaml:"max_steps"`          // runaway-loop guard
	FullPromptSteps int `yaml:"full_prompt_steps"`  // steps using the full instruction variant
	AnalyzeEvery    int `yaml:"analyze_every"`      // turns between deep progress analysis
	ReportEvery     int `yaml:"report_every"`       // turns between progress reports
}

// CompactionConfig configures context compaction budgets.
type CompactionConfig struct {
	HighWaterTokens  int `yaml:"high_water_tokens"`
	LowWaterTokens   int `yaml:"low_water_tokens"`
	SummaryMaxTokens int `yaml:"summary_max_tokens"`
	KeepRecentTurns  int `yaml:"keep_recent_turns"`
}

// StorageConfig configures checkpoint persistence.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	Path   string `yaml:"path,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"` // e.g. ":9090"
}

// LoggingConfig configures run transcripts.
type LoggingConfig struct {
	TranscriptDir string `yaml:"transcript_dir,omitempty"` // empty disables transcripts
}

// Config is the root configuration record.
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Browser    BrowserConfig    `yaml:"browser"`
	Agent      AgentConfig      `yaml:"agent"`
	Compaction CompactionConfig `yaml:"compaction"`
	Storage    StorageConfig    `yaml:"storage"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads, substitutes, defaults, and validates a YAML config file.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses config bytes with ${ENV_VAR} substitution.
func Parse(data []byte) (*Config, error) {
	// Replace environment variable placeholders. Unknown placeholders are
	// left intact so validation can point at them.
	dataStr := envVarRegex.ReplaceAllStringFunc(string(data), func(match string) string {
		envVar := match[2 : len(match)-1]
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})

	var cfg Config
	if err := yaml.Unmarshal([]byte(dataStr), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderOpenAI
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.3
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 4096
	}
	if cfg.Browser.ActionTimeout == 0 {
		cfg.Browser.ActionTimeout = DefaultActionTimeout
	}
	if cfg.Agent.MaxSteps == 0 {
		cfg.Agent.MaxSteps = DefaultMaxSteps
	}
	if cfg.Agent.FullPromptSteps == 0 {
		cfg.Agent.FullPromptSteps = DefaultFullPromptSteps
	}
	if cfg.Agent.AnalyzeEvery == 0 {
		cfg.Agent.AnalyzeEvery = DefaultAnalyzeEvery
	}
	if cfg.Agent.ReportEvery == 0 {
		cfg.Agent.ReportEvery = DefaultReportEvery
	}
	if cfg.Compaction.HighWaterTokens == 0 {
		cfg.Compaction.HighWaterTokens = DefaultHighWaterTokens
	}
	if cfg.Compaction.LowWaterTokens == 0 {
		cfg.Compaction.LowWaterTokens = DefaultLowWaterTokens
	}
	if cfg.Compaction.SummaryMaxTokens == 0 {
		cfg.Compaction.SummaryMaxTokens = DefaultSummaryMaxTokens
	}
	if cfg.Compaction.KeepRecentTurns == 0 {
		cfg.Compaction.KeepRecentTurns = DefaultKeepRecentTurns
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageMemory
	}
}

func validate(cfg *Config) error {
	switch cfg.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm model cannot be empty")
	}
	if cfg.LLM.APIKey == "" || envVarRegex.MatchString(cfg.LLM.APIKey) {
		return fmt.Errorf("llm api_key is empty or references an unset environment variable")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be between 0.0 and 2.0")
	}
	switch cfg.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path required for sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
	if cfg.Compaction.LowWaterTokens > cfg.Compaction.HighWaterTokens {
		return fmt.Errorf("compaction low_water_tokens must not exceed high_water_tokens")
	}
	if cfg.Agent.ReportEvery > cfg.Agent.AnalyzeEvery {
		return fmt.Errorf("agent report_every must not exceed analyze_every")
	}
	return nil
}
