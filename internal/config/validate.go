package config

import (
	"fmt"
	"math"

	"github.com/mikey/spam-risk-scorer/internal/core"
	"go.uber.org/multierr"
)

// WeightTolerance is how far the scoring weights may drift from summing to 1
const WeightTolerance = 0.001

var (
	historyBackends = map[string]bool{"file": true, "memory": true, "sqlite": true, "mysql": true, "redis": true}
	logLevels       = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
)

// Validate checks the settings the core relies on and reports all violations at once
func (c *Config) Validate() error {
	var err error

	err = multierr.Append(err, ValidateFusion(c.GetFusion()))
	err = multierr.Append(err, validateTechnical(c.GetTechnicalRules()))
	err = multierr.Append(err, validateNLP(c.GetNLPRules()))

	h := c.GetHistory()
	if !historyBackends[h.Backend] {
		err = multierr.Append(err, fmt.Errorf("history.backend %q is not one of file, memory, sqlite, mysql, redis", h.Backend))
	}
	if h.Backend == "file" && h.Path == "" {
		err = multierr.Append(err, fmt.Errorf("history.path is required for the file backend"))
	}
	if h.MaxRecords <= 0 {
		err = multierr.Append(err, fmt.Errorf("history.max_records must be positive, got %d", h.MaxRecords))
	}
	if h.RetentionDays <= 0 {
		err = multierr.Append(err, fmt.Errorf("history.retention_days must be positive, got %d", h.RetentionDays))
	}

	if _, locErr := c.GetLocation(); locErr != nil {
		err = multierr.Append(err, locErr)
	}
	if level := c.GetLogging().Level; !logLevels[level] {
		err = multierr.Append(err, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", level))
	}
	return err
}

// ValidateFusion checks weights and thresholds of the decision layer
func ValidateFusion(fc core.FusionConfig) error {
	var err error
	w := fc.Weights

	for name, v := range map[string]float64{
		"scoring.weights.technical":  w.Technical,
		"scoring.weights.nlp":        w.NLP,
		"scoring.weights.behavioral": w.Behavioral,
	} {
		if v < 0 || v > 1 {
			err = multierr.Append(err, fmt.Errorf("%s must be within [0,1], got %v", name, v))
		}
	}
	if sum := w.Technical + w.NLP + w.Behavioral; math.Abs(sum-1) > WeightTolerance {
		err = multierr.Append(err, fmt.Errorf("scoring weights must sum to 1.0, got %.4f", sum))
	}
	if w.Technical+w.NLP <= 0 {
		err = multierr.Append(err, fmt.Errorf("scoring.weights.technical and scoring.weights.nlp cannot both be zero"))
	}

	r := fc.RiskLevels
	if r.Low < 0 || r.Medium > 1 {
		err = multierr.Append(err, fmt.Errorf("scoring.risk_levels must be within [0,1], got low=%v medium=%v", r.Low, r.Medium))
	}
	if r.Low >= r.Medium {
		err = multierr.Append(err, fmt.Errorf("scoring.risk_levels.low (%v) must be below scoring.risk_levels.medium (%v)", r.Low, r.Medium))
	}

	rec := fc.Recommendations
	if rec.VerifySender > rec.AvoidLinks || rec.AvoidLinks > rec.Report {
		err = multierr.Append(err, fmt.Errorf("scoring.recommendations thresholds must be non-decreasing, got %v, %v, %v",
			rec.VerifySender, rec.AvoidLinks, rec.Report))
	}

	if fc.NormalizationDivisor <= 0 {
		err = multierr.Append(err, fmt.Errorf("scoring.normalization_divisor must be positive, got %v", fc.NormalizationDivisor))
	}
	if fc.SpamScoreThreshold < 0 {
		err = multierr.Append(err, fmt.Errorf("scoring.spam_score_threshold must not be negative, got %v", fc.SpamScoreThreshold))
	}
	return err
}

func validateTechnical(r core.TechnicalRules) error {
	return nonNegative("scoring.technical", map[string]float64{
		"link_ratio_threshold":      r.LinkRatioThreshold,
		"link_ratio_penalty":        r.LinkRatioPenalty,
		"link_count_threshold":      float64(r.LinkCountThreshold),
		"link_count_penalty":        r.LinkCountPenalty,
		"domain_count_threshold":    float64(r.DomainCountThreshold),
		"domain_count_penalty":      r.DomainCountPenalty,
		"tracking_pixel_penalty":    r.TrackingPixelPenalty,
		"reply_to_mismatch_penalty": r.ReplyToPenalty,
		"html_only_penalty":         r.HTMLOnlyPenalty,
		"attachment_penalty":        r.AttachmentPenalty,
		"auth_failure_penalty":      r.AuthFailurePenalty,
	})
}

func validateNLP(r core.NLPRules) error {
	return nonNegative("scoring.nlp", map[string]float64{
		"spam_word_ratio_threshold": r.SpamWordRatioThreshold,
		"spam_word_ratio_penalty":   r.SpamWordRatioPenalty,
		"spammy_words_threshold":    float64(r.SpammyWordsThreshold),
		"spammy_words_penalty":      r.SpammyWordsPenalty,
		"all_caps_threshold":        float64(r.AllCapsThreshold),
		"all_caps_penalty":          r.AllCapsPenalty,
		"exclamation_threshold":     float64(r.ExclamationThreshold),
		"exclamation_penalty":       r.ExclamationPenalty,
	})
}

func nonNegative(prefix string, values map[string]float64) error {
	var err error
	for name, v := range values {
		if v < 0 {
			err = multierr.Append(err, fmt.Errorf("%s.%s must not be negative, got %v", prefix, name, v))
		}
	}
	return err
}
