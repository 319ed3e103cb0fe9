package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mikey/spam-risk-scorer/internal/utils"
	"github.com/mikey/spam-risk-scorer/internal/whitelist"
)

var fixedNow = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, store *fakeStore, rec *fakeRecorder, trusted ...string) *SpamFilterService {
	logger := zaptest.NewLogger(t)
	behavior := NewBehavioralAnalyzer(store, utils.NewTextProcessor(logger), logger, rec, nil)
	svc := NewSpamFilterService(
		behavior,
		NewTechnicalScorer(DefaultTechnicalRules()),
		NewNLPScorer(DefaultNLPRules()),
		NewDecisionFusion(DefaultFusionConfig()),
		store,
		whitelist.NewChecker(trusted, logger),
		rec,
		logger,
	)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func validRequest(from string) *AnalysisRequest {
	return &AnalysisRequest{
		Email: ParsedEmail{
			PlainText: "Hello Bob",
			Metadata: EmailMetadata{
				Subject: "Lunch",
				From:    from,
				To:      []string{"bob@example.com", " ", "carol@example.com"},
				Date:    "Tue, 05 Mar 2024 10:00:00 +0000",
			},
		},
		Technical: TechnicalMetrics{SPF: AuthPass},
		NLP:       NLPMetrics{Prediction: PredictionHam},
	}
}

func TestAnalyzeEmail(t *testing.T) {
	store := newFakeStore()
	rec := newFakeRecorder()
	svc := newService(t, store, rec)

	result, err := svc.AnalyzeEmail(context.Background(), validRequest("Alice@Example.com"))
	require.NoError(t, err)

	assert.Equal(t, RiskLow, result.RiskLevel)
	assert.False(t, result.IsSpam)
	assert.Equal(t, SummaryLow, result.Summary)
	assert.Equal(t, fixedNow, result.AnalyzedAt)
	_, err = uuid.Parse(result.ProcessingID)
	assert.NoError(t, err)

	b := result.Details.Behavior.Result
	require.NotNil(t, b)
	assert.True(t, b.IsNewSender)
	assert.Equal(t, "alice@example.com", b.From)
	assert.Equal(t, behaviorSourceReputation, result.Details.Behavior.Source)
	// new sender reputation 0.3 gives a behavior score of 0.35
	assert.InDelta(t, 0.35*0.3, result.OverallScore, 1e-9)

	stored := store.records("alice@example.com")
	require.Len(t, stored, 1)
	assert.Equal(t, 2, stored[0].RecipientsCount)
	assert.Equal(t, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), stored[0].Date.UTC())

	require.Len(t, rec.analyses, 1)
	assert.Equal(t, 1, rec.newSenders)
}

func TestAnalyzeEmailHTMLFallback(t *testing.T) {
	store := newFakeStore()
	svc := newService(t, store, newFakeRecorder())

	req := validRequest("html@example.com")
	req.Email.PlainText = "  "
	req.Email.HTMLText = "<p>Hello</p>"
	_, err := svc.AnalyzeEmail(context.Background(), req)
	require.NoError(t, err)

	tp := utils.NewTextProcessor(nil)
	assert.Equal(t, tp.ContentHash("<p>Hello</p>"), store.records("html@example.com")[0].ContentHash)
}

func TestAnalyzeEmailInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  func() *AnalysisRequest
	}{
		{"nil request", func() *AnalysisRequest { return nil }},
		{"missing sender", func() *AnalysisRequest { return validRequest("  ") }},
		{"missing date", func() *AnalysisRequest {
			r := validRequest("a@example.com")
			r.Email.Metadata.Date = ""
			return r
		}},
		{"bad date", func() *AnalysisRequest {
			r := validRequest("a@example.com")
			r.Email.Metadata.Date = "yesterday"
			return r
		}},
		{"urgency out of range", func() *AnalysisRequest {
			r := validRequest("a@example.com")
			r.Signals = &BehaviorSignals{Urgency: ptr(1.5), SocialEngineering: ptr(0)}
			return r
		}},
		{"social engineering negative", func() *AnalysisRequest {
			r := validRequest("a@example.com")
			r.Signals = &BehaviorSignals{SocialEngineering: ptr(-0.1)}
			return r
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newService(t, store, newFakeRecorder())

			result, err := svc.AnalyzeEmail(context.Background(), tt.req())
			assert.Nil(t, result)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)

			var ae *AnalysisError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, KindInvalidInput, ae.Kind)
			assert.NotEmpty(t, ae.Message)
			assert.Empty(t, store.senders, "history must not change")
		})
	}
}

func TestAnalyzeEmailTrustedDomain(t *testing.T) {
	store := newFakeStore()
	svc := newService(t, store, newFakeRecorder(), "trusted.com")

	req := validRequest("CEO <boss@Trusted.com>")
	req.Technical = TechnicalMetrics{SPF: AuthFail, DKIM: AuthFail, DMARC: AuthFail, LinkCount: 20}
	req.NLP.Prediction = PredictionSpam

	result, err := svc.AnalyzeEmail(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.OverallScore)
	assert.Equal(t, RiskLow, result.RiskLevel)
	assert.False(t, result.IsSpam)
	assert.Equal(t, SummaryTrusted, result.Summary)
	assert.Empty(t, result.Recommendations)
	assert.Equal(t, 12.0, result.Details.Technical.Score, "details keep the raw evidence")
	assert.Len(t, store.records("ceo <boss@trusted.com>"), 1)
}

func TestAnalyzeEmailStorageFailureIsNotSurfaced(t *testing.T) {
	store := newFakeStore()
	store.persistErr = errors.New("read-only file system")
	rec := newFakeRecorder()
	svc := newService(t, store, rec)

	result, err := svc.AnalyzeEmail(context.Background(), validRequest("a@example.com"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, rec.failures["persist"])

	// the in-memory state stays authoritative
	result, err = svc.AnalyzeEmail(context.Background(), validRequest("a@example.com"))
	require.NoError(t, err)
	assert.False(t, result.Details.Behavior.Result.IsNewSender)
}

func TestPruneHistory(t *testing.T) {
	store := newFakeStore()
	rec := newFakeRecorder()
	svc := newService(t, store, rec)

	_, err := svc.PruneHistory(context.Background(), 0)
	assert.Error(t, err)

	_, err = svc.PruneHistory(context.Background(), time.Hour)
	assert.NoError(t, err)

	store.pruneErr = errors.New("locked")
	_, err = svc.PruneHistory(context.Background(), time.Hour)
	assert.ErrorIs(t, err, store.pruneErr)
	assert.Equal(t, 1, rec.failures["prune"])
}

func TestSenderHistory(t *testing.T) {
	store := newFakeStore()
	svc := newService(t, store, newFakeRecorder())
	_, err := svc.AnalyzeEmail(context.Background(), validRequest("a@example.com"))
	require.NoError(t, err)

	records, err := svc.SenderHistory(context.Background(), " A@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	senders, err := svc.Senders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com"}, senders)

	records, err = svc.SenderHistory(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseEmailDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-03-05T10:00:00Z",
		"2024-03-05T11:00:00+01:00",
		"2024-03-05T10:00:00.000Z",
		"Tue, 05 Mar 2024 10:00:00 +0000",
		"5 Mar 2024 05:00:00 -0500",
	} {
		got, err := ParseEmailDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	_, err := ParseEmailDate("05/03/2024")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
