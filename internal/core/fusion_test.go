package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuseTechnicalOnlyTriggersSpam(t *testing.T) {
	f := NewDecisionFusion(DefaultFusionConfig())

	r := f.Fuse(TechnicalDetails{Score: 9}, NLPDetails{Score: 0, Prediction: PredictionHam}, nil, nil)

	assert.InDelta(t, 5.4, r.FinalScore, 1e-9)
	assert.True(t, r.IsSpam)
	assert.InDelta(t, 0.378, r.OverallScore, 1e-9)
	assert.Equal(t, RiskMedium, r.RiskLevel)
	assert.Equal(t, SummaryMedium, r.Summary)
	assert.Equal(t, []string{RecommendVerifySender}, r.Recommendations)
	assert.Equal(t, behaviorSourceNone, r.Details.Behavior.Source)
}

func TestFuseClassifierVoteAlone(t *testing.T) {
	f := NewDecisionFusion(DefaultFusionConfig())

	r := f.Fuse(TechnicalDetails{}, NLPDetails{Prediction: PredictionSpam}, nil, nil)

	assert.True(t, r.IsSpam)
	assert.Equal(t, 0.0, r.OverallScore)
	assert.Equal(t, RiskLow, r.RiskLevel)
	assert.Empty(t, r.Recommendations)
	assert.NotNil(t, r.Recommendations)
}

func TestFuseBehaviorScore(t *testing.T) {
	f := NewDecisionFusion(DefaultFusionConfig())
	behavior := &BehavioralResult{ReputationScore: 0.3, MassMailingIndicator: true}

	tests := []struct {
		name     string
		behavior *BehavioralResult
		signals  *BehaviorSignals
		score    float64
		source   string
	}{
		{"signals", behavior, &BehaviorSignals{Urgency: ptr(0.8), SocialEngineering: ptr(0.6)}, 0.7, behaviorSourceSignals},
		{"signals capped", nil, &BehaviorSignals{Urgency: ptr(1), SocialEngineering: ptr(1)}, 1, behaviorSourceSignals},
		{"partial signals fall back", behavior, &BehaviorSignals{Urgency: ptr(0.9)}, 0.85, behaviorSourceReputation},
		{"reputation", behavior, nil, 0.85, behaviorSourceReputation},
		{"good reputation", &BehavioralResult{ReputationScore: 0.5}, nil, 0.25, behaviorSourceReputation},
		{"none", nil, nil, 0, behaviorSourceNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := f.Fuse(TechnicalDetails{}, NLPDetails{}, tt.behavior, tt.signals)
			assert.InDelta(t, tt.score, r.Details.Behavior.Score, 1e-9)
			assert.Equal(t, tt.source, r.Details.Behavior.Source)
			assert.InDelta(t, tt.score*0.3, r.OverallScore, 1e-9)
			assert.True(t, tt.behavior == r.Details.Behavior.Result)
		})
	}
}

func TestFuseClampsOverall(t *testing.T) {
	f := NewDecisionFusion(DefaultFusionConfig())

	r := f.Fuse(TechnicalDetails{Score: 30}, NLPDetails{Score: 30}, nil, &BehaviorSignals{Urgency: ptr(1), SocialEngineering: ptr(1)})

	assert.Equal(t, 1.0, r.OverallScore)
	assert.Equal(t, RiskHigh, r.RiskLevel)
	assert.Equal(t, SummaryHigh, r.Summary)
	assert.Equal(t, []string{RecommendVerifySender, RecommendAvoidLinks, RecommendReport}, r.Recommendations)
}

func TestFuseTierBoundariesAreStrict(t *testing.T) {
	f := NewDecisionFusion(DefaultFusionConfig())
	full := &BehaviorSignals{Urgency: ptr(1), SocialEngineering: ptr(1)}

	// behavior alone contributes exactly the behavioral weight
	r := f.Fuse(TechnicalDetails{}, NLPDetails{}, nil, full)
	assert.InDelta(t, 0.3, r.OverallScore, 1e-12)
	assert.Equal(t, RiskMedium, r.RiskLevel)
	assert.Empty(t, r.Recommendations)
}

func TestFuseRecommendationsCumulative(t *testing.T) {
	cfg := DefaultFusionConfig()
	cfg.Weights = FusionWeights{Technical: 0.6, NLP: 0.4, Behavioral: 0}
	f := NewDecisionFusion(cfg)

	// with no behavioral weight the overall score is finalScore / 10
	tests := []struct {
		technical float64
		level     RiskLevel
		recs      int
	}{
		{2, RiskLow, 0},
		{6, RiskMedium, 1},
		{10, RiskMedium, 2},
		{13, RiskHigh, 3},
	}
	for _, tt := range tests {
		r := f.Fuse(TechnicalDetails{Score: tt.technical}, NLPDetails{}, nil, nil)
		assert.InDelta(t, tt.technical*0.6/10, r.OverallScore, 1e-9)
		assert.Equal(t, tt.level, r.RiskLevel, "technical %v", tt.technical)
		assert.Len(t, r.Recommendations, tt.recs, "technical %v", tt.technical)
	}
}

func TestFuseDefaultMixMatchesFixedWeights(t *testing.T) {
	f := NewDecisionFusion(DefaultFusionConfig())
	for _, tc := range [][2]float64{{0, 0}, {3, 7}, {12, 2}, {22, 9}} {
		r := f.Fuse(TechnicalDetails{Score: tc[0]}, NLPDetails{Score: tc[1]}, nil, nil)
		want := tc[0]*0.6 + tc[1]*0.4
		assert.InDelta(t, want, r.FinalScore, 1e-9)
		assert.InDelta(t, min(want/10*0.7, 1), r.OverallScore, 1e-9)
	}
}
