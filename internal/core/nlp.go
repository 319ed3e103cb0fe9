package core

// NLPRules holds the thresholds and penalty magnitudes of the NLP scorer
type NLPRules struct {
	SpamWordRatioThreshold float64
	SpamWordRatioPenalty   float64
	SpammyWordsThreshold   int
	SpammyWordsPenalty     float64
	AllCapsThreshold       int
	AllCapsPenalty         float64
	ExclamationThreshold   int
	ExclamationPenalty     float64
}

// DefaultNLPRules returns the hand tuned lexical penalties
func DefaultNLPRules() NLPRules {
	return NLPRules{
		SpamWordRatioThreshold: 0.05,
		SpamWordRatioPenalty:   3,
		SpammyWordsThreshold:   3,
		SpammyWordsPenalty:     2,
		AllCapsThreshold:       5,
		AllCapsPenalty:         2,
		ExclamationThreshold:   3,
		ExclamationPenalty:     2,
	}
}

// NLPScorer maps NLP metrics to an unbounded penalty score.
// The classifier label does not add penalty; it is a separate vote in DecisionFusion.
type NLPScorer struct {
	rules NLPRules
}

// NewNLPScorer creates a new NLP scorer
func NewNLPScorer(rules NLPRules) *NLPScorer {
	return &NLPScorer{rules: rules}
}

// Score returns the penalty sum and the names of the triggered rules
func (s *NLPScorer) Score(m NLPMetrics) (float64, []string) {
	r := s.rules
	var score float64
	rules := []string{}

	if m.SpamWordRatio > r.SpamWordRatioThreshold {
		score += r.SpamWordRatioPenalty
		rules = append(rules, "spam_word_ratio")
	}
	if m.NumSpammyWords > r.SpammyWordsThreshold {
		score += r.SpammyWordsPenalty
		rules = append(rules, "spammy_words")
	}
	if m.AllCapsCount > r.AllCapsThreshold {
		score += r.AllCapsPenalty
		rules = append(rules, "all_caps")
	}
	if m.ExclamationCount > r.ExclamationThreshold {
		score += r.ExclamationPenalty
		rules = append(rules, "exclamations")
	}

	return score, rules
}
