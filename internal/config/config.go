package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mikey/spam-risk-scorer/internal/core"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance. An empty configFile searches the default locations.
func New(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/spam-risk/")
		v.AddConfigPath("$HOME/.spam-risk")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("SPAM_RISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	fusion := core.DefaultFusionConfig()
	v.SetDefault("scoring.weights.technical", fusion.Weights.Technical)
	v.SetDefault("scoring.weights.nlp", fusion.Weights.NLP)
	v.SetDefault("scoring.weights.behavioral", fusion.Weights.Behavioral)
	v.SetDefault("scoring.risk_levels.low", fusion.RiskLevels.Low)
	v.SetDefault("scoring.risk_levels.medium", fusion.RiskLevels.Medium)
	v.SetDefault("scoring.recommendations.verify_sender", fusion.Recommendations.VerifySender)
	v.SetDefault("scoring.recommendations.avoid_links", fusion.Recommendations.AvoidLinks)
	v.SetDefault("scoring.recommendations.report", fusion.Recommendations.Report)
	v.SetDefault("scoring.spam_score_threshold", fusion.SpamScoreThreshold)
	v.SetDefault("scoring.normalization_divisor", fusion.NormalizationDivisor)

	// Technical penalties
	tech := core.DefaultTechnicalRules()
	v.SetDefault("scoring.technical.link_ratio_threshold", tech.LinkRatioThreshold)
	v.SetDefault("scoring.technical.link_ratio_penalty", tech.LinkRatioPenalty)
	v.SetDefault("scoring.technical.link_count_threshold", tech.LinkCountThreshold)
	v.SetDefault("scoring.technical.link_count_penalty", tech.LinkCountPenalty)
	v.SetDefault("scoring.technical.domain_count_threshold", tech.DomainCountThreshold)
	v.SetDefault("scoring.technical.domain_count_penalty", tech.DomainCountPenalty)
	v.SetDefault("scoring.technical.tracking_pixel_penalty", tech.TrackingPixelPenalty)
	v.SetDefault("scoring.technical.reply_to_mismatch_penalty", tech.ReplyToPenalty)
	v.SetDefault("scoring.technical.html_only_penalty", tech.HTMLOnlyPenalty)
	v.SetDefault("scoring.technical.attachment_penalty", tech.AttachmentPenalty)
	v.SetDefault("scoring.technical.auth_failure_penalty", tech.AuthFailurePenalty)

	// NLP penalties
	nlp := core.DefaultNLPRules()
	v.SetDefault("scoring.nlp.spam_word_ratio_threshold", nlp.SpamWordRatioThreshold)
	v.SetDefault("scoring.nlp.spam_word_ratio_penalty", nlp.SpamWordRatioPenalty)
	v.SetDefault("scoring.nlp.spammy_words_threshold", nlp.SpammyWordsThreshold)
	v.SetDefault("scoring.nlp.spammy_words_penalty", nlp.SpammyWordsPenalty)
	v.SetDefault("scoring.nlp.all_caps_threshold", nlp.AllCapsThreshold)
	v.SetDefault("scoring.nlp.all_caps_penalty", nlp.AllCapsPenalty)
	v.SetDefault("scoring.nlp.exclamation_threshold", nlp.ExclamationThreshold)
	v.SetDefault("scoring.nlp.exclamation_penalty", nlp.ExclamationPenalty)

	// Behavior defaults
	v.SetDefault("behavior.timezone", "UTC")

	// History defaults
	v.SetDefault("history.backend", "file")
	v.SetDefault("history.path", "./data/sender_history.json")
	v.SetDefault("history.max_records", 100)
	v.SetDefault("history.retention_days", 90)
	v.SetDefault("history.sqlite_path", "./data/sender_history.db")
	v.SetDefault("history.mysql_dsn", "user:password@tcp(localhost:3306)/spam_risk")
	v.SetDefault("history.redis_url", "redis://localhost:6379/0")
	v.SetDefault("history.redis_prefix", "spamrisk:history:")

	// Spam defaults
	v.SetDefault("spam.trusted_domains", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// Set overrides a value, used for command line flags
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// ConfigFileUsed returns the path of the loaded file, empty when only defaults are used
func (c *Config) ConfigFileUsed() string {
	return c.v.ConfigFileUsed()
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
