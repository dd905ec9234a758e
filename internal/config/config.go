// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Page      PageConfig      `mapstructure:"page"`
	Authority AuthorityConfig `mapstructure:"authority"`
	Content   ContentConfig   `mapstructure:"content"`
	Trends    TrendsConfig    `mapstructure:"trends"`
	Techcrawl TechcrawlConfig `mapstructure:"techcrawl"`
	Audit     AuditConfig     `mapstructure:"audit"`
	History   HistoryConfig   `mapstructure:"history"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Batch     BatchConfig     `mapstructure:"batch"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int     `mapstructure:"port"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RateRPS        float64 `mapstructure:"rate_rps"`
	RateBurst      int     `mapstructure:"rate_burst"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ScoringConfig selects the scoring policies.
type ScoringConfig struct {
	LocalizationPolicy string `mapstructure:"localization_policy"`
	AltTextPolicy      string `mapstructure:"alt_text_policy"`
}

// PageConfig controls the on-page fetcher and headless promotion.
type PageConfig struct {
	UserAgent       string `mapstructure:"user_agent"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	HeadlessEnabled bool   `mapstructure:"headless_enabled"`
	MinBodyBytes    int    `mapstructure:"min_body_bytes"`
	NavTimeoutSec   int    `mapstructure:"nav_timeout_seconds"`
}

// AuthorityConfig configures the domain-authority source.
type AuthorityConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	Token          string `mapstructure:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ContentConfig configures the content-quality source.
type ContentConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	Token          string `mapstructure:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// TrendsConfig configures the keyword-interest source.
type TrendsConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Timeframe      string `mapstructure:"timeframe"`
	Geo            string `mapstructure:"geo"`
}

// TechcrawlConfig configures the site-spider source.
type TechcrawlConfig struct {
	CLIPath        string `mapstructure:"cli_path"`
	OutputDir      string `mapstructure:"output_dir"`
	MaxDepth       int    `mapstructure:"max_depth"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// AuditConfig configures the performance-audit source.
type AuditConfig struct {
	CLIPath        string `mapstructure:"cli_path"`
	OutputDir      string `mapstructure:"output_dir"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// HistoryConfig selects and configures the historical store.
type HistoryConfig struct {
	Backend       string `mapstructure:"backend"` // file, postgres, none
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
	DSN           string `mapstructure:"dsn"`
	Table         string `mapstructure:"table"`
}

// ArchiveConfig selects and configures raw page archiving.
type ArchiveConfig struct {
	Backend   string `mapstructure:"backend"` // none, local, gcs
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// PublisherConfig holds metadata for publish-subscribe notifications.
type PublisherConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// BatchConfig governs batch analysis behavior.
type BatchConfig struct {
	DelaySeconds int `mapstructure:"delay_seconds"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SEOPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 60)
	v.SetDefault("server.rate_rps", 0)
	v.SetDefault("server.rate_burst", 5)
	v.SetDefault("logging.development", true)
	v.SetDefault("scoring.localization_policy", "linkage")
	v.SetDefault("scoring.alt_text_policy", "threshold")
	v.SetDefault("page.user_agent", "Mozilla/5.0 (compatible; seopipe/1.0)")
	v.SetDefault("page.timeout_seconds", 10)
	v.SetDefault("page.headless_enabled", false)
	v.SetDefault("page.min_body_bytes", 1024)
	v.SetDefault("page.nav_timeout_seconds", 45)
	v.SetDefault("authority.timeout_seconds", 30)
	v.SetDefault("content.timeout_seconds", 30)
	v.SetDefault("trends.timeout_seconds", 10)
	v.SetDefault("trends.timeframe", "today 3-m")
	v.SetDefault("trends.geo", "US")
	v.SetDefault("techcrawl.timeout_seconds", 600)
	v.SetDefault("techcrawl.max_depth", 3)
	v.SetDefault("audit.timeout_seconds", 120)
	v.SetDefault("history.backend", "file")
	v.SetDefault("history.path", "./data/signal_history.json")
	v.SetDefault("history.retention_days", 30)
	v.SetDefault("history.table", "signal_records")
	v.SetDefault("archive.backend", "none")
	v.SetDefault("batch.delay_seconds", 2)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Page.TimeoutSeconds <= 0 {
		return fmt.Errorf("page.timeout_seconds must be > 0")
	}
	switch c.Scoring.LocalizationPolicy {
	case "linkage", "text":
	default:
		return fmt.Errorf("scoring.localization_policy must be linkage or text")
	}
	switch c.Scoring.AltTextPolicy {
	case "threshold", "proportional":
	default:
		return fmt.Errorf("scoring.alt_text_policy must be threshold or proportional")
	}
	switch c.History.Backend {
	case "file":
		if c.History.Path == "" {
			return fmt.Errorf("history.path must be set for the file backend")
		}
	case "postgres":
		if c.History.DSN == "" {
			return fmt.Errorf("history.dsn must be set for the postgres backend")
		}
	case "none":
	default:
		return fmt.Errorf("history.backend must be file, postgres, or none")
	}
	switch c.Archive.Backend {
	case "none":
	case "local":
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir must be set for the local backend")
		}
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("archive.backend must be none, local, or gcs")
	}
	if c.Publisher.Enabled && (c.Publisher.ProjectID == "" || c.Publisher.TopicName == "") {
		return fmt.Errorf("publisher.project_id and publisher.topic_name must be set when publishing is enabled")
	}
	if c.History.RetentionDays <= 0 {
		return fmt.Errorf("history.retention_days must be > 0")
	}
	return nil
}

// Retention converts the configured retention window to a duration.
func (c Config) Retention() time.Duration {
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}
