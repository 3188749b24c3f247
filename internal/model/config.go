package model

import "time"

// Config is the complete Tribunal configuration
type Config struct {
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Ledger       LedgerConfig       `yaml:"ledger" mapstructure:"ledger"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Deliberation DeliberationConfig `yaml:"deliberation" mapstructure:"deliberation"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
}

// LLMConfig configures the generation provider
type LLMConfig struct {
	Provider      string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model         string  `yaml:"model" mapstructure:"model"`
	APIKey        string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL       string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout       int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens     int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature   float32 `yaml:"temperature" mapstructure:"temperature"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst         int     `yaml:"burst" mapstructure:"burst"`
}

// LedgerConfig configures the tamper-evident ledger mirror
type LedgerConfig struct {
	Mode          string        `yaml:"mode" mapstructure:"mode"` // LEDGER_A, LEDGER_B, or empty to disable
	BaseURL       string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	APIKey        string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Namespace     string        `yaml:"namespace" mapstructure:"namespace"`         // LEDGER_A log namespace
	Treasury      string        `yaml:"treasury,omitempty" mapstructure:"treasury"` // LEDGER_B paying account
	Timeout       int           `yaml:"timeout" mapstructure:"timeout"`             // seconds
	ProofCacheDir string        `yaml:"proof_cache_dir,omitempty" mapstructure:"proof_cache_dir"`
	ProofCacheTTL time.Duration `yaml:"proof_cache_ttl" mapstructure:"proof_cache_ttl"`
}

// StoreConfig configures the SQLite message log
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// DeliberationConfig configures orchestration runs
type DeliberationConfig struct {
	RunTimeout          time.Duration `yaml:"run_timeout" mapstructure:"run_timeout"`
	LeaseGrace          time.Duration `yaml:"lease_grace" mapstructure:"lease_grace"`
	FraudScoreThreshold int           `yaml:"fraud_score_threshold" mapstructure:"fraud_score_threshold"` // isReal iff score > threshold
	MaxBranches         int           `yaml:"max_branches" mapstructure:"max_branches"`
}

// LoggingConfig configures structured logging
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	Dir   string `yaml:"dir,omitempty" mapstructure:"dir"` // empty writes to stderr
}

// ConcurrencyConfig configures batch processing
type ConcurrencyConfig struct {
	BatchWorkers int `yaml:"batch_workers" mapstructure:"batch_workers"`
}

// HTTPConfig holds shared outbound HTTP settings
type HTTPConfig struct {
	HTTPProxy    string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:      "openai",
			Model:         "gpt-4o-mini",
			Timeout:       60,
			MaxTokens:     1200,
			Temperature:   0.4,
			RatePerSecond: 2,
			Burst:         4,
		},
		Ledger: LedgerConfig{
			Mode:          "",
			Namespace:     "tribunal",
			Timeout:       15,
			ProofCacheTTL: 24 * time.Hour,
		},
		Store: StoreConfig{
			Path: "tribunal.db",
		},
		Deliberation: DeliberationConfig{
			RunTimeout:          5 * time.Minute,
			LeaseGrace:          30 * time.Second,
			FraudScoreThreshold: 70,
			MaxBranches:         3,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers: 4,
		},
		HTTP: HTTPConfig{
			MaxBodyBytes: 20_000_000,
		},
	}
}
