package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mikey/spam-risk-scorer/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())
	require.NoError(t, cfg.Validate())

	assert.Equal(t, core.DefaultFusionConfig(), cfg.GetFusion())
	assert.Equal(t, core.DefaultTechnicalRules(), cfg.GetTechnicalRules())
	assert.Equal(t, core.DefaultNLPRules(), cfg.GetNLPRules())

	h := cfg.GetHistory()
	assert.Equal(t, "file", h.Backend)
	assert.Equal(t, 100, h.MaxRecords)
	assert.Equal(t, 90*24*time.Hour, h.Retention())

	loc, err := cfg.GetLocation()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestRejectsInvertedRiskLevels(t *testing.T) {
	v := NewEmptyViper()
	v.Set("scoring.weights.technical", 0.5)
	v.Set("scoring.weights.nlp", 0.5)
	v.Set("scoring.weights.behavioral", 0.0)
	v.Set("scoring.risk_levels.low", 0.5)
	v.Set("scoring.risk_levels.medium", 0.3)

	err := NewFromViper(v).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scoring.risk_levels.low")
	assert.Len(t, multierr.Errors(err), 1)
}

func TestWeightSum(t *testing.T) {
	tests := []struct {
		name                     string
		technical, nlp, behavior float64
		valid                    bool
	}{
		{"exact", 0.5, 0.5, 0, true},
		{"within tolerance", 0.42, 0.28, 0.3005, true},
		{"too low", 0.4, 0.3, 0.2, false},
		{"too high", 0.6, 0.4, 0.3, false},
		{"behavior only", 0, 0, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := core.DefaultFusionConfig()
			fc.Weights = core.FusionWeights{Technical: tt.technical, NLP: tt.nlp, Behavioral: tt.behavior}
			err := ValidateFusion(fc)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateCollectsEveryViolation(t *testing.T) {
	v := NewEmptyViper()
	v.Set("scoring.normalization_divisor", 0)
	v.Set("scoring.technical.auth_failure_penalty", -1)
	v.Set("history.backend", "cassandra")
	v.Set("history.max_records", 0)
	v.Set("logging.level", "chatty")
	v.Set("behavior.timezone", "Mars/Olympus")

	err := NewFromViper(v).Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 6)
}

func TestNewReadsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := strings.Join([]string{
		"scoring:",
		"  weights:",
		"    technical: 0.6",
		"    nlp: 0.4",
		"    behavioral: 0",
		"history:",
		"  backend: memory",
		"spam:",
		"  trusted_domains: [example.com]",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	t.Setenv("SPAM_RISK_HISTORY_MAX_RECORDS", "25")

	cfg, err := New(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	fc := cfg.GetFusion()
	assert.Equal(t, 0.6, fc.Weights.Technical)
	assert.Equal(t, 0.0, fc.Weights.Behavioral)
	// untouched keys of a partially set section keep their defaults
	assert.Equal(t, 0.3, fc.RiskLevels.Low)

	assert.Equal(t, "memory", cfg.GetHistory().Backend)
	assert.Equal(t, 25, cfg.GetHistory().MaxRecords)
	assert.Equal(t, []string{"example.com"}, cfg.GetTrustedDomains())
	assert.Equal(t, path, cfg.ConfigFileUsed())
}

func TestNewFailsOnMissingExplicitFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
