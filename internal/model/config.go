package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete runtime configuration. Commands build one from
// defaults + config file + flags and pass it into constructors explicitly.
type Config struct {
	LLM         LLMConfig             `yaml:"llm" mapstructure:"llm"`
	OpenAlex    OpenAlexConfig        `yaml:"openalex" mapstructure:"openalex"`
	S2          SemanticScholarConfig `yaml:"semanticscholar" mapstructure:"semanticscholar"`
	HTTP        HTTPConfig            `yaml:"http" mapstructure:"http"`
	Retry       RetryConfig           `yaml:"retry" mapstructure:"retry"`
	RateLimit   RateLimitConfig       `yaml:"ratelimit" mapstructure:"ratelimit"`
	Match       MatchConfig           `yaml:"match" mapstructure:"match"`
	Concurrency ConcurrencyConfig     `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig           `yaml:"cache" mapstructure:"cache"`
	Output      OutputConfig          `yaml:"output" mapstructure:"output"`
}

// LLMConfig configures the structured-extraction provider.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "openai", "ollama"
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"-"` // from env only, never persisted
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OpenAlexConfig configures the primary catalog provider.
type OpenAlexConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Mailto  string `yaml:"mailto" mapstructure:"mailto"` // polite-pool contact address
	PerPage int    `yaml:"per_page" mapstructure:"per_page"`
}

// SemanticScholarConfig configures the fallback catalog provider.
type SemanticScholarConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string `yaml:"-" mapstructure:"-"`
	PerPage int    `yaml:"per_page" mapstructure:"per_page"`
}

// HTTPConfig holds shared HTTP client settings for catalog calls.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RetryConfig controls retry behavior on transient catalog failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" mapstructure:"base_delay"`
}

// RateLimitConfig bounds the request rate per catalog provider.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// MatchConfig holds the Match Selector tuning constants.
type MatchConfig struct {
	AcceptThreshold float64 `yaml:"accept_threshold" mapstructure:"accept_threshold"`
	RejectFloor     float64 `yaml:"reject_floor" mapstructure:"reject_floor"`
	YearTolerance   int     `yaml:"year_tolerance" mapstructure:"year_tolerance"`
}

// ConcurrencyConfig bounds parallel reference processing.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig controls catalog response caching.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// OutputConfig controls report rendering and progress output.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	cacheDir := ".refscout-cache"
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".refscout", "cache")
	}

	return &Config{
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			Timeout:   30,
			MaxTokens: 512,
		},
		OpenAlex: OpenAlexConfig{
			BaseURL: "https://api.openalex.org",
			PerPage: 10,
		},
		S2: SemanticScholarConfig{
			BaseURL: "https://api.semanticscholar.org/graph/v1",
			PerPage: 5,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 2,
			BaseDelay:   500 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             2,
		},
		Match: MatchConfig{
			AcceptThreshold: 0.40,
			RejectFloor:     0.35,
			YearTolerance:   2,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: time.Hour,
			DiskTTL:   72 * time.Hour,
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}
