package ports

import (
	"context"
	"time"

	"github.com/mikey/spam-risk-scorer/internal/core"
)

// EmailAnalyzer defines the interface for email risk analysis
type EmailAnalyzer interface {
	// AnalyzeEmail scores an email and records it in the sender history
	AnalyzeEmail(ctx context.Context, req *core.AnalysisRequest) (*core.SpamAnalysisResult, error)
}

// HistoryMaintainer defines the maintenance operations on the sender history
type HistoryMaintainer interface {
	// PruneHistory removes records older than retention
	PruneHistory(ctx context.Context, retention time.Duration) (int, error)

	// SenderHistory returns the stored records of one sender
	SenderHistory(ctx context.Context, sender string) ([]core.EmailRecord, error)

	// Senders lists every sender with stored history
	Senders(ctx context.Context) ([]string, error)
}

var (
	_ EmailAnalyzer     = (*core.SpamFilterService)(nil)
	_ HistoryMaintainer = (*core.SpamFilterService)(nil)
)
