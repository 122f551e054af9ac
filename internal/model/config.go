package model

import "time"

// Config holds the complete indxflow configuration
type Config struct {
	Analysis     AnalysisConfig     `yaml:"analysis" mapstructure:"analysis"`
	Keywords     KeywordsConfig     `yaml:"keywords" mapstructure:"keywords"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Ledger       LedgerConfig       `yaml:"ledger" mapstructure:"ledger"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// AnalysisConfig controls the escalation decision and per-request cost estimates
type AnalysisConfig struct {
	ConfidenceThreshold int     `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	LocalCost           float64 `yaml:"local_cost" mapstructure:"local_cost"` // per local analysis
	AICost              float64 `yaml:"ai_cost" mapstructure:"ai_cost"`       // per model call
}

// KeywordsConfig points at the external keyword artifact.
// When both are empty, or the source fails, the embedded set is used.
type KeywordsConfig struct {
	Path    string        `yaml:"path" mapstructure:"path"`
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LLMConfig configures the model analyzer
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // anthropic, openai, ollama, "" (disabled)
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"-" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	HTTPProxy   string  `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy  string  `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy     string  `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls the model result cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Cleanup time.Duration `yaml:"cleanup" mapstructure:"cleanup"`
	Dir     string        `yaml:"dir" mapstructure:"dir"` // optional disk layer
}

// RateLimitingConfig spaces model calls across all callers
type RateLimitingConfig struct {
	MinInterval time.Duration `yaml:"min_interval" mapstructure:"min_interval"`
}

// LedgerConfig controls the cost ledger
type LedgerConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	Debug   bool `yaml:"debug" mapstructure:"debug"` // include scorer debug info
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			ConfidenceThreshold: 75,
			LocalCost:           0.00001,
			AICost:              0.002,
		},
		Keywords: KeywordsConfig{
			Timeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    "", // Disabled by default
			Timeout:     30,
			MaxTokens:   1000,
			Temperature: 0.1,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
			Cleanup: 10 * time.Minute,
		},
		RateLimiting: RateLimitingConfig{
			MinInterval: time.Second,
		},
		Ledger: LedgerConfig{
			Enabled: false,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
	}
}
