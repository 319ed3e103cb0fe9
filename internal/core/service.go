package core

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/spam-risk-scorer/internal/whitelist"
	"go.uber.org/zap"
)

// SummaryTrusted is the summary of emails from trusted sender domains
const SummaryTrusted = "Sender domain is trusted"

// SpamFilterService is the analysis pipeline: behavior, scorers, then fusion
type SpamFilterService struct {
	behavior  *BehavioralAnalyzer
	technical *TechnicalScorer
	nlp       *NLPScorer
	fusion    *DecisionFusion
	store     HistoryStore
	trusted   *whitelist.Checker
	metrics   MetricsRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewSpamFilterService creates a new spam filter service
func NewSpamFilterService(
	behavior *BehavioralAnalyzer,
	technical *TechnicalScorer,
	nlp *NLPScorer,
	fusion *DecisionFusion,
	store HistoryStore,
	trusted *whitelist.Checker,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *SpamFilterService {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &SpamFilterService{
		behavior:  behavior,
		technical: technical,
		nlp:       nlp,
		fusion:    fusion,
		store:     store,
		trusted:   trusted,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// AnalyzeEmail scores one email. Only invalid input fails the call; storage
// problems are logged by the behavioral analyzer.
func (s *SpamFilterService) AnalyzeEmail(ctx context.Context, req *AnalysisRequest) (*SpamAnalysisResult, error) {
	start := s.now()

	if err := validateRequest(req); err != nil {
		s.logger.Warn("Rejected analysis request", zap.Error(err))
		return nil, err
	}
	meta := req.Email.Metadata
	date, err := ParseEmailDate(meta.Date)
	if err != nil {
		s.logger.Warn("Rejected analysis request", zap.Error(err))
		return nil, err
	}

	behavior := s.behavior.Analyze(ctx, meta.From, date, meta.Subject, countRecipients(meta.To), req.Email.Content())

	techScore, techRules := s.technical.Score(req.Technical)
	nlpScore, nlpRules := s.nlp.Score(req.NLP)

	result := s.fusion.Fuse(
		TechnicalDetails{Score: techScore, Rules: techRules, Metrics: req.Technical},
		NLPDetails{Score: nlpScore, Rules: nlpRules, Prediction: req.NLP.Prediction, Metrics: req.NLP},
		behavior,
		req.Signals,
	)

	if s.trusted != nil && s.trusted.IsWhitelisted(meta.From) {
		s.logger.Info("Trusted sender domain, overriding verdict",
			zap.String("sender", behavior.From),
			zap.String("action", "whitelist_bypass"))
		result.OverallScore = 0
		result.RiskLevel = RiskLow
		result.IsSpam = false
		result.Summary = SummaryTrusted
		result.Recommendations = []string{}
	}

	result.AnalyzedAt = start
	result.ProcessingID = uuid.NewString()

	elapsed := s.now().Sub(start)
	s.metrics.ObserveAnalysis(result, behavior.IsNewSender, elapsed)

	s.logger.Info("Email analyzed",
		zap.String("processing_id", result.ProcessingID),
		zap.String("sender", behavior.From),
		zap.Float64("overall_score", result.OverallScore),
		zap.String("risk_level", string(result.RiskLevel)),
		zap.Bool("is_spam", result.IsSpam),
		zap.Duration("elapsed", elapsed))

	return result, nil
}

// PruneHistory removes history older than retention. Unlike analysis, storage errors are returned.
func (s *SpamFilterService) PruneHistory(ctx context.Context, retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %s", retention)
	}
	removed, err := s.store.Prune(ctx, retention)
	if err != nil {
		s.metrics.StoreFailure("prune")
		return removed, fmt.Errorf("failed to prune sender history: %w", err)
	}
	s.logger.Info("Pruned sender history",
		zap.Duration("retention", retention),
		zap.Int("removed_records", removed))
	return removed, nil
}

// SenderHistory returns the stored records of one sender
func (s *SpamFilterService) SenderHistory(ctx context.Context, sender string) ([]EmailRecord, error) {
	key := s.behavior.text.SenderKey(sender)
	records, err := s.store.History(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read history of %s: %w", key, err)
	}
	return records, nil
}

// Senders lists every sender with stored history
func (s *SpamFilterService) Senders(ctx context.Context) ([]string, error) {
	senders, err := s.store.Senders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list senders: %w", err)
	}
	return senders, nil
}

func validateRequest(req *AnalysisRequest) error {
	if req == nil {
		return invalidInput("request is empty", nil)
	}
	if strings.TrimSpace(req.Email.Metadata.From) == "" {
		return invalidInput("email.metadata.from is required", nil)
	}
	if req.Signals != nil {
		if err := checkUnit("signals.urgency", req.Signals.Urgency); err != nil {
			return err
		}
		if err := checkUnit("signals.socialEngineering", req.Signals.SocialEngineering); err != nil {
			return err
		}
	}
	return nil
}

func checkUnit(name string, v *float64) error {
	if v != nil && (*v < 0 || *v > 1) {
		return invalidInput(fmt.Sprintf("%s must be within [0,1], got %v", name, *v), nil)
	}
	return nil
}

// ParseEmailDate accepts RFC 3339 timestamps and RFC 5322 Date header values
func ParseEmailDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, invalidInput("email.metadata.date is required", nil)
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	t, err := mail.ParseDate(value)
	if err != nil {
		return time.Time{}, invalidInput(fmt.Sprintf("email.metadata.date %q is not a valid date", value), err)
	}
	return t, nil
}

func countRecipients(to []string) int {
	n := 0
	for _, addr := range to {
		if strings.TrimSpace(addr) != "" {
			n++
		}
	}
	return n
}
