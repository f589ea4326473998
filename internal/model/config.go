package model

import (
	"fmt"
	"time"
)

// MaxRevisionsCap is the most revisions one analysis scores
const MaxRevisionsCap = 300

// Config is the complete wikitrust configuration. Field tags are shared by the
// YAML dump and viper's decoder.
type Config struct {
	Wiki         WikiConfig        `yaml:"wiki" mapstructure:"wiki"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Retry        RetryConfig       `yaml:"retry" mapstructure:"retry"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Trust        TrustConfig       `yaml:"trust" mapstructure:"trust"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
	Logging      LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Metrics      MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
}

// WikiConfig selects the wiki and shapes the API requests
type WikiConfig struct {
	BaseURL         string        `yaml:"base_url" mapstructure:"base_url"` // e.g. https://en.wikipedia.org
	UserAgent       string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout"` // Per HTTP request
	MaxRevisions    int           `yaml:"max_revisions" mapstructure:"max_revisions"`
	LatestRevisions int           `yaml:"latest_revisions" mapstructure:"latest_revisions"`
	WordCount       bool          `yaml:"word_count" mapstructure:"word_count"`
	HTTPProxy       string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy      string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig controls the in-memory response cache
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL             time.Duration `yaml:"ttl" mapstructure:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"` // 0 disables the janitor
}

// RetryConfig controls the API retry schedule
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" mapstructure:"max_attempts"` // Including the first attempt
	InitialDelay time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	Multiplier   float64       `yaml:"multiplier" mapstructure:"multiplier"`
}

// RateLimitConfig throttles outgoing requests per host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"` // <= 0 disables
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// TrustConfig holds the contributor classification policy
type TrustConfig struct {
	HighTrustGroups   []string `yaml:"high_trust_groups" mapstructure:"high_trust_groups"`
	TrustedGroups     []string `yaml:"trusted_groups" mapstructure:"trusted_groups"`
	RecognizedEdits   int      `yaml:"recognized_edits" mapstructure:"recognized_edits"`
	EstablishedEdits  int      `yaml:"established_edits" mapstructure:"established_edits"`
	IntermediateEdits int      `yaml:"intermediate_edits" mapstructure:"intermediate_edits"`
	NewEdits          int      `yaml:"new_edits" mapstructure:"new_edits"` // Below this an account is new
	NewAccountDays    int      `yaml:"new_account_days" mapstructure:"new_account_days"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	Language      string `yaml:"language" mapstructure:"language"` // BCP 47 tag for labels
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
}

// LoggingConfig controls the zerolog logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "console" or "json"
}

// MetricsConfig controls the prometheus endpoint of the serve command
type MetricsConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Wiki: WikiConfig{
			BaseURL:         "https://en.wikipedia.org",
			UserAgent:       "wikitrust/0.1 (+https://github.com/ppiankov/wikitrust)",
			Timeout:         15 * time.Second,
			MaxRevisions:    MaxRevisionsCap,
			LatestRevisions: 3,
			WordCount:       true,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             10 * time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 350 * time.Millisecond,
			Multiplier:   2,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 10,
			BurstSize:         10,
		},
		Trust: TrustConfig{
			HighTrustGroups: []string{
				"sysop", "bureaucrat", "checkuser", "oversight", "suppress",
				"interface-admin", "steward", "arbcom",
			},
			TrustedGroups: []string{
				"editor", "reviewer", "autoreviewer", "extendedconfirmed",
				"patroller", "rollbacker", "templateeditor",
			},
			RecognizedEdits:   5000,
			EstablishedEdits:  2000,
			IntermediateEdits: 300,
			NewEdits:          50,
			NewAccountDays:    180,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			Language:      "en",
			IncludeFooter: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Listen: ":8080",
		},
	}
}

// Validate rejects settings the analysis cannot run with
func (c *Config) Validate() error {
	if c.Wiki.MaxRevisions < 1 || c.Wiki.MaxRevisions > MaxRevisionsCap {
		return fmt.Errorf("wiki.max_revisions must be between 1 and %d, got %d", MaxRevisionsCap, c.Wiki.MaxRevisions)
	}
	if c.Wiki.LatestRevisions < 0 {
		return fmt.Errorf("wiki.latest_revisions must not be negative, got %d", c.Wiki.LatestRevisions)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Concurrency.Workers < 1 {
		return fmt.Errorf("concurrency.workers must be at least 1, got %d", c.Concurrency.Workers)
	}
	return nil
}
