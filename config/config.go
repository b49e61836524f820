// Package config loads service configuration from .env files, an optional
// YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seo-optimizer/seo-inspector/analyzer"
	"github.com/seo-optimizer/seo-inspector/logging"
)

// EnvPrefix is prepended to every environment variable viper binds
const EnvPrefix = "SEO_INSPECTOR"

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig           `mapstructure:"server"`
	Capture  CaptureConfig          `mapstructure:"capture"`
	Cache    CacheConfig            `mapstructure:"cache"`
	Stats    StatsConfig            `mapstructure:"stats"`
	Logging  logging.Options        `mapstructure:"logging"`
	Scoring  analyzer.ScoreRules    `mapstructure:"scoring"`
	Hreflang analyzer.HreflangRules `mapstructure:"hreflang"`
}

type ServerConfig struct {
	Port              string  `mapstructure:"port"`
	GinMode           string  `mapstructure:"gin_mode"`
	DevMode           bool    `mapstructure:"dev_mode"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	// StatsSaveEvery persists request statistics after this many analysis
	// requests
	StatsSaveEvery int `mapstructure:"stats_save_every"`
}

type CaptureConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	Render       bool          `mapstructure:"render"`
	BrowserBin   string        `mapstructure:"browser_bin"`
	BrowserURL   string        `mapstructure:"browser_url"`
	NoSandbox    bool          `mapstructure:"no_sandbox"`
}

type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type StatsConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	RetainMonths int    `mapstructure:"retain_months"`
}

// loadEnv loads .env.development for local development, falling back to .env
func loadEnv() {
	if err := godotenv.Load(".env.development"); err != nil {
		_ = godotenv.Load()
	}
}

// Load reads configuration. configPath may be empty, in which case
// config.yaml is looked up in the working directory and ./config.
func Load(configPath string) (*Config, error) {
	loadEnv()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8082")
	v.SetDefault("server.gin_mode", gin.ReleaseMode)
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("server.requests_per_second", 2)
	v.SetDefault("server.burst", 5)
	v.SetDefault("server.stats_save_every", 100)

	v.SetDefault("capture.timeout", "15s")
	v.SetDefault("capture.user_agent", "SEOInspector/1.0")
	v.SetDefault("capture.max_body_bytes", 10<<20)
	v.SetDefault("capture.render", false)
	v.SetDefault("capture.browser_bin", "")
	v.SetDefault("capture.browser_url", "")
	v.SetDefault("capture.no_sandbox", false)

	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "1h")

	v.SetDefault("stats.data_dir", "./data")
	v.SetDefault("stats.retain_months", 12)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)

	rules := analyzer.DefaultScoreRules()
	v.SetDefault("scoring.base", rules.Base)
	v.SetDefault("scoring.title_min_length", rules.TitleMinLength)
	v.SetDefault("scoring.title_max_length", rules.TitleMaxLength)
	v.SetDefault("scoring.title_penalty", rules.TitlePenalty)
	v.SetDefault("scoring.description_min_length", rules.DescriptionMinLength)
	v.SetDefault("scoring.description_max_length", rules.DescriptionMaxLength)
	v.SetDefault("scoring.description_penalty", rules.DescriptionPenalty)
	v.SetDefault("scoring.canonical_penalty", rules.CanonicalPenalty)
	v.SetDefault("scoring.expected_h1_count", rules.ExpectedH1Count)
	v.SetDefault("scoring.h1_penalty", rules.H1Penalty)
	v.SetDefault("scoring.image_alt_penalty", rules.ImageAltPenalty)
	v.SetDefault("scoring.image_alt_penalty_cap", rules.ImageAltPenaltyCap)
	v.SetDefault("scoring.schema_penalty", rules.SchemaPenalty)
	v.SetDefault("scoring.noindex_penalty", rules.NoindexPenalty)

	v.SetDefault("hreflang.accept_x_default", false)
}

// bindEnvVars maps SEO_INSPECTOR_SECTION_KEY variables onto config keys and
// keeps the plain PORT, GIN_MODE and DEV_MODE names working
func bindEnvVars(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	legacy := map[string][]string{
		"server.port":     {EnvPrefix + "_SERVER_PORT", "PORT"},
		"server.gin_mode": {EnvPrefix + "_SERVER_GIN_MODE", "GIN_MODE"},
		"server.dev_mode": {EnvPrefix + "_SERVER_DEV_MODE", "DEV_MODE"},
	}
	for key, names := range legacy {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// Validate checks the loaded values for mistakes that would otherwise only
// surface at request time
func (c *Config) Validate() error {
	switch c.Server.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("invalid gin mode %q", c.Server.GinMode)
	}
	if c.Server.Port == "" {
		return errors.New("server port must be set")
	}
	if c.Server.RequestsPerSecond <= 0 || c.Server.Burst < 1 {
		return fmt.Errorf("rate limit must be positive, got %v/s burst %d", c.Server.RequestsPerSecond, c.Server.Burst)
	}
	if c.Capture.Timeout <= 0 {
		return errors.New("capture timeout must be positive")
	}
	if c.Capture.MaxBodyBytes <= 0 {
		return errors.New("capture max body size must be positive")
	}
	if c.Scoring.TitleMinLength > c.Scoring.TitleMaxLength {
		return fmt.Errorf("scoring title range is inverted: %d > %d", c.Scoring.TitleMinLength, c.Scoring.TitleMaxLength)
	}
	if c.Scoring.DescriptionMinLength > c.Scoring.DescriptionMaxLength {
		return fmt.Errorf("scoring description range is inverted: %d > %d", c.Scoring.DescriptionMinLength, c.Scoring.DescriptionMaxLength)
	}
	return nil
}
