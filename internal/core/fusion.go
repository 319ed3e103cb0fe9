package core

// FusionWeights weight the three evidence streams. They sum to 1.
// Technical and NLP also set the mix of the raw penalty score.
type FusionWeights struct {
	Technical  float64
	NLP        float64
	Behavioral float64
}

// RiskThresholds are the upper bounds of the low and medium tiers
type RiskThresholds struct {
	Low    float64
	Medium float64
}

// RecommendationThresholds are the overall scores above which each advice is given
type RecommendationThresholds struct {
	VerifySender float64
	AvoidLinks   float64
	Report       float64
}

// FusionConfig configures DecisionFusion
type FusionConfig struct {
	Weights              FusionWeights
	RiskLevels           RiskThresholds
	Recommendations      RecommendationThresholds
	SpamScoreThreshold   float64
	NormalizationDivisor float64
}

// DefaultFusionConfig returns a configuration reproducing the 0.6/0.4 penalty mix
// blended 70/30 with behavioral evidence.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		Weights:              FusionWeights{Technical: 0.42, NLP: 0.28, Behavioral: 0.30},
		RiskLevels:           RiskThresholds{Low: 0.3, Medium: 0.7},
		Recommendations:      RecommendationThresholds{VerifySender: 0.3, AvoidLinks: 0.5, Report: 0.7},
		SpamScoreThreshold:   5,
		NormalizationDivisor: 10,
	}
}

const (
	SummaryLow    = "Low risk: no significant spam or phishing indicators were found."
	SummaryMedium = "Medium risk: some suspicious indicators were found, handle this email with caution."
	SummaryHigh   = "High risk: strong spam or phishing indicators were found."

	RecommendVerifySender = "Verify the sender's identity through a trusted channel before responding."
	RecommendAvoidLinks   = "Do not click links or open attachments in this email."
	RecommendReport       = "Consider reporting this email as spam or phishing."

	behaviorSourceSignals    = "signals"
	behaviorSourceReputation = "reputation"
	behaviorSourceNone       = "none"
)

// DecisionFusion combines the technical, NLP and behavioral scores into one verdict.
// It holds no state and is safe for concurrent use.
type DecisionFusion struct {
	cfg FusionConfig
}

// NewDecisionFusion creates a new decision fusion layer. cfg must already be validated.
func NewDecisionFusion(cfg FusionConfig) *DecisionFusion {
	return &DecisionFusion{cfg: cfg}
}

// Fuse builds the analysis result from the per-stream details
func (f *DecisionFusion) Fuse(
	technical TechnicalDetails,
	nlp NLPDetails,
	behavior *BehavioralResult,
	signals *BehaviorSignals,
) *SpamAnalysisResult {
	w := f.cfg.Weights
	penaltyShare := w.Technical + w.NLP

	finalScore := (technical.Score*w.Technical + nlp.Score*w.NLP) / penaltyShare
	isSpam := finalScore > f.cfg.SpamScoreThreshold || nlp.Prediction.IsSpam()

	behaviorScore, source := behaviorScore(behavior, signals)
	overall := clamp01(finalScore/f.cfg.NormalizationDivisor*penaltyShare + behaviorScore*w.Behavioral)

	level := f.riskLevel(overall)
	return &SpamAnalysisResult{
		OverallScore: overall,
		RiskLevel:    level,
		IsSpam:       isSpam,
		FinalScore:   finalScore,
		Summary:      summaryFor(level),
		Details: AnalysisDetails{
			Technical: technical,
			NLP:       nlp,
			Behavior: BehaviorDetails{
				Score:  behaviorScore,
				Source: source,
				Result: behavior,
			},
		},
		Recommendations: f.recommendations(overall),
	}
}

// behaviorScore prefers explicit urgency and social engineering sub-scores and
// otherwise derives a score from reputation and mass mailing.
func behaviorScore(b *BehavioralResult, signals *BehaviorSignals) (float64, string) {
	if signals != nil && signals.Urgency != nil && signals.SocialEngineering != nil {
		return min((*signals.Urgency+*signals.SocialEngineering)/2, 1), behaviorSourceSignals
	}
	if b == nil {
		return 0, behaviorSourceNone
	}
	mass := 0.0
	if b.MassMailingIndicator {
		mass = 1.0
	}
	return clamp01(((1 - b.ReputationScore) + mass) / 2), behaviorSourceReputation
}

func (f *DecisionFusion) riskLevel(score float64) RiskLevel {
	switch {
	case score < f.cfg.RiskLevels.Low:
		return RiskLow
	case score < f.cfg.RiskLevels.Medium:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func summaryFor(level RiskLevel) string {
	switch level {
	case RiskLow:
		return SummaryLow
	case RiskMedium:
		return SummaryMedium
	default:
		return SummaryHigh
	}
}

func (f *DecisionFusion) recommendations(score float64) []string {
	r := f.cfg.Recommendations
	out := []string{}
	if score > r.VerifySender {
		out = append(out, RecommendVerifySender)
	}
	if score > r.AvoidLinks {
		out = append(out, RecommendAvoidLinks)
	}
	if score > r.Report {
		out = append(out, RecommendReport)
	}
	return out
}
