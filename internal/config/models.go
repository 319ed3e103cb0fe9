package config

import (
	"fmt"
	"time"

	"github.com/mikey/spam-risk-scorer/internal/core"
)

// HistoryConfig represents the configuration of the sender history store
type HistoryConfig struct {
	Backend       string
	Path          string
	MaxRecords    int
	RetentionDays int
	SQLitePath    string
	MySQLDSN      string
	RedisURL      string
	RedisPrefix   string
}

// Retention returns the prune window
func (h HistoryConfig) Retention() time.Duration {
	return time.Duration(h.RetentionDays) * 24 * time.Hour
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// GetFusion returns the decision fusion configuration
func (c *Config) GetFusion() core.FusionConfig {
	return core.FusionConfig{
		Weights: core.FusionWeights{
			Technical:  c.GetFloat64("scoring.weights.technical"),
			NLP:        c.GetFloat64("scoring.weights.nlp"),
			Behavioral: c.GetFloat64("scoring.weights.behavioral"),
		},
		RiskLevels: core.RiskThresholds{
			Low:    c.GetFloat64("scoring.risk_levels.low"),
			Medium: c.GetFloat64("scoring.risk_levels.medium"),
		},
		Recommendations: core.RecommendationThresholds{
			VerifySender: c.GetFloat64("scoring.recommendations.verify_sender"),
			AvoidLinks:   c.GetFloat64("scoring.recommendations.avoid_links"),
			Report:       c.GetFloat64("scoring.recommendations.report"),
		},
		SpamScoreThreshold:   c.GetFloat64("scoring.spam_score_threshold"),
		NormalizationDivisor: c.GetFloat64("scoring.normalization_divisor"),
	}
}

// GetTechnicalRules returns the technical scorer penalties
func (c *Config) GetTechnicalRules() core.TechnicalRules {
	return core.TechnicalRules{
		LinkRatioThreshold:   c.GetFloat64("scoring.technical.link_ratio_threshold"),
		LinkRatioPenalty:     c.GetFloat64("scoring.technical.link_ratio_penalty"),
		LinkCountThreshold:   c.GetInt("scoring.technical.link_count_threshold"),
		LinkCountPenalty:     c.GetFloat64("scoring.technical.link_count_penalty"),
		DomainCountThreshold: c.GetInt("scoring.technical.domain_count_threshold"),
		DomainCountPenalty:   c.GetFloat64("scoring.technical.domain_count_penalty"),
		TrackingPixelPenalty: c.GetFloat64("scoring.technical.tracking_pixel_penalty"),
		ReplyToPenalty:       c.GetFloat64("scoring.technical.reply_to_mismatch_penalty"),
		HTMLOnlyPenalty:      c.GetFloat64("scoring.technical.html_only_penalty"),
		AttachmentPenalty:    c.GetFloat64("scoring.technical.attachment_penalty"),
		AuthFailurePenalty:   c.GetFloat64("scoring.technical.auth_failure_penalty"),
	}
}

// GetNLPRules returns the NLP scorer penalties
func (c *Config) GetNLPRules() core.NLPRules {
	return core.NLPRules{
		SpamWordRatioThreshold: c.GetFloat64("scoring.nlp.spam_word_ratio_threshold"),
		SpamWordRatioPenalty:   c.GetFloat64("scoring.nlp.spam_word_ratio_penalty"),
		SpammyWordsThreshold:   c.GetInt("scoring.nlp.spammy_words_threshold"),
		SpammyWordsPenalty:     c.GetFloat64("scoring.nlp.spammy_words_penalty"),
		AllCapsThreshold:       c.GetInt("scoring.nlp.all_caps_threshold"),
		AllCapsPenalty:         c.GetFloat64("scoring.nlp.all_caps_penalty"),
		ExclamationThreshold:   c.GetInt("scoring.nlp.exclamation_threshold"),
		ExclamationPenalty:     c.GetFloat64("scoring.nlp.exclamation_penalty"),
	}
}

// GetHistory returns the history store configuration
func (c *Config) GetHistory() HistoryConfig {
	return HistoryConfig{
		Backend:       c.GetString("history.backend"),
		Path:          c.GetString("history.path"),
		MaxRecords:    c.GetInt("history.max_records"),
		RetentionDays: c.GetInt("history.retention_days"),
		SQLitePath:    c.GetString("history.sqlite_path"),
		MySQLDSN:      c.GetString("history.mysql_dsn"),
		RedisURL:      c.GetString("history.redis_url"),
		RedisPrefix:   c.GetString("history.redis_prefix"),
	}
}

// GetLocation returns the location used for hour of day and weekday
func (c *Config) GetLocation() (*time.Location, error) {
	name := c.GetString("behavior.timezone")
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid behavior.timezone %q: %w", name, err)
	}
	return loc, nil
}

// GetTrustedDomains returns the sender domains whose emails are never flagged
func (c *Config) GetTrustedDomains() []string {
	return c.GetStringSlice("spam.trusted_domains")
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}
