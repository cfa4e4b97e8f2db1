package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all service configuration. Every value has a default and can
// be overridden through the environment (RESEARCH_ prefix, dots become
// underscores), e.g. RESEARCH_SEARCH_ENDPOINT or RESEARCH_LOG_LEVEL.
type Config struct {
	Port      string `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`

	Search    SearchConfig    `mapstructure:"search"`
	Extract   ExtractConfig   `mapstructure:"extract"`
	Selection SelectionConfig `mapstructure:"selection"`
	Synthesis SynthesisConfig `mapstructure:"synthesis"`
	Store     StoreConfig     `mapstructure:"store"`
}

// SearchConfig tunes the discovery stage.
type SearchConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	Timeout      time.Duration `mapstructure:"timeout"`
	QuickResults int           `mapstructure:"quick_results"`
	DeepResults  int           `mapstructure:"deep_results"`
}

// ExtractConfig tunes the content-fetch stage.
type ExtractConfig struct {
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	MinInterval      time.Duration `mapstructure:"min_interval"`
	MaxConcurrent    int           `mapstructure:"max_concurrent"`
	MaxSourceChars   int           `mapstructure:"max_source_chars"`
	MaxBodyBytes     int64         `mapstructure:"max_body_bytes"`
	MinUsableChars   int           `mapstructure:"min_usable_chars"`
	EnablePDFSources bool          `mapstructure:"enable_pdf_sources"`
	UnidocLicenseKey string        `mapstructure:"unidoc_license_key"`
}

// SelectionConfig sets the depth-specific source quotas.
type SelectionConfig struct {
	QuickQuota     int `mapstructure:"quick_quota"`
	DeepQuota      int `mapstructure:"deep_quota"`
	MinUsableChars int `mapstructure:"min_usable_chars"`
	PreviewChars   int `mapstructure:"preview_chars"`
}

// SynthesisConfig tunes the model call and the context budget.
type SynthesisConfig struct {
	MaxContextChars int           `mapstructure:"max_context_chars"`
	MaxOutputTokens int32         `mapstructure:"max_output_tokens"`
	Temperature     float32       `mapstructure:"temperature"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// StoreConfig selects and bounds the report store.
type StoreConfig struct {
	Backend   string        `mapstructure:"backend"` // "memory" or "redis"
	Capacity  int           `mapstructure:"capacity"`
	TTL       time.Duration `mapstructure:"ttl"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisPass string        `mapstructure:"redis_pass"`
}

// Quota returns the selection quota for the given depth.
func (c SelectionConfig) Quota(deep bool) int {
	if deep {
		return c.DeepQuota
	}
	return c.QuickQuota
}

// Load reads configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", "gemini-2.0-flash")

	v.SetDefault("search.endpoint", "https://html.duckduckgo.com/html")
	v.SetDefault("search.timeout", 15*time.Second)
	v.SetDefault("search.quick_results", 9)
	v.SetDefault("search.deep_results", 18)

	v.SetDefault("extract.fetch_timeout", 8*time.Second)
	v.SetDefault("extract.min_interval", 300*time.Millisecond)
	v.SetDefault("extract.max_concurrent", 4)
	v.SetDefault("extract.max_source_chars", 15000)
	v.SetDefault("extract.max_body_bytes", int64(7_000_000))
	v.SetDefault("extract.min_usable_chars", 100)
	v.SetDefault("extract.enable_pdf_sources", false)
	v.SetDefault("extract.unidoc_license_key", "")

	v.SetDefault("selection.quick_quota", 7)
	v.SetDefault("selection.deep_quota", 15)
	v.SetDefault("selection.min_usable_chars", 100)
	v.SetDefault("selection.preview_chars", 300)

	v.SetDefault("synthesis.max_context_chars", 200000)
	v.SetDefault("synthesis.max_output_tokens", 8192)
	v.SetDefault("synthesis.temperature", 0.6)
	v.SetDefault("synthesis.timeout", 2*time.Minute)

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.capacity", 100)
	v.SetDefault("store.ttl", time.Hour)
	v.SetDefault("store.redis_addr", "redis:6379")
	v.SetDefault("store.redis_pass", "")
}

func (c *Config) validate() error {
	if c.Search.QuickResults <= 0 || c.Search.DeepResults <= 0 {
		return fmt.Errorf("search result counts must be positive")
	}
	if c.Selection.QuickQuota <= 0 || c.Selection.DeepQuota <= 0 {
		return fmt.Errorf("selection quotas must be positive")
	}
	if c.Extract.MaxConcurrent <= 0 {
		return fmt.Errorf("extract.max_concurrent must be positive")
	}
	if c.Synthesis.MaxContextChars <= 0 {
		return fmt.Errorf("synthesis.max_context_chars must be positive")
	}
	if c.Store.Capacity <= 0 {
		return fmt.Errorf("store.capacity must be positive")
	}
	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("store.backend must be memory or redis, got %q", c.Store.Backend)
	}
	return nil
}
