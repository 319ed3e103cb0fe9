package core

// TechnicalRules holds the thresholds and penalty magnitudes of the technical scorer
type TechnicalRules struct {
	LinkRatioThreshold   float64
	LinkRatioPenalty     float64
	LinkCountThreshold   int
	LinkCountPenalty     float64
	DomainCountThreshold int
	DomainCountPenalty   float64
	TrackingPixelPenalty float64
	ReplyToPenalty       float64
	HTMLOnlyPenalty      float64
	AttachmentPenalty    float64
	AuthFailurePenalty   float64
}

// DefaultTechnicalRules returns the hand tuned technical penalties
func DefaultTechnicalRules() TechnicalRules {
	return TechnicalRules{
		LinkRatioThreshold:   0.01,
		LinkRatioPenalty:     2,
		LinkCountThreshold:   5,
		LinkCountPenalty:     3,
		DomainCountThreshold: 3,
		DomainCountPenalty:   2,
		TrackingPixelPenalty: 2,
		ReplyToPenalty:       1,
		HTMLOnlyPenalty:      1,
		AttachmentPenalty:    2,
		AuthFailurePenalty:   3,
	}
}

// TechnicalScorer maps technical metrics to an unbounded penalty score
type TechnicalScorer struct {
	rules TechnicalRules
}

// NewTechnicalScorer creates a new technical scorer
func NewTechnicalScorer(rules TechnicalRules) *TechnicalScorer {
	return &TechnicalScorer{rules: rules}
}

// Score returns the penalty sum and the names of the triggered rules
func (s *TechnicalScorer) Score(m TechnicalMetrics) (float64, []string) {
	r := s.rules
	var score float64
	rules := []string{}

	add := func(cond bool, penalty float64, name string) {
		if cond {
			score += penalty
			rules = append(rules, name)
		}
	}

	add(m.LinkRatio > r.LinkRatioThreshold, r.LinkRatioPenalty, "link_ratio")
	add(m.LinkCount > r.LinkCountThreshold, r.LinkCountPenalty, "link_count")
	add(m.DomainCount > r.DomainCountThreshold, r.DomainCountPenalty, "domain_count")
	add(m.HasTrackingPixel, r.TrackingPixelPenalty, "tracking_pixel")
	add(m.ReplyToMismatch, r.ReplyToPenalty, "reply_to_mismatch")
	add(m.HTMLOnly, r.HTMLOnlyPenalty, "html_only")
	add(m.HasAttachments, r.AttachmentPenalty, "attachments")
	add(m.SPF.IsFail(), r.AuthFailurePenalty, "spf_fail")
	add(m.DKIM.IsFail(), r.AuthFailurePenalty, "dkim_fail")
	add(m.DMARC.IsFail(), r.AuthFailurePenalty, "dmarc_fail")

	return score, rules
}
