package core

import (
	"context"
	"time"
)

// HistoryStore defines the interface for durable per-sender email history
type HistoryStore interface {
	// Load reads the persisted history. Unreadable state is logged and replaced by an empty history.
	Load(ctx context.Context) error

	// History returns the records of a sender in insertion order, empty for unknown senders
	History(ctx context.Context, sender string) ([]EmailRecord, error)

	// Append adds a record and evicts the oldest records above the cap
	Append(ctx context.Context, sender string, record EmailRecord) error

	// Persist writes the history to durable storage
	Persist(ctx context.Context) error

	// Prune removes records older than the retention window and senders left empty.
	// It returns the number of removed records.
	Prune(ctx context.Context, retention time.Duration) (int, error)

	// Senders lists the stored sender keys
	Senders(ctx context.Context) ([]string, error)

	// Close releases the underlying resources
	Close() error
}

// MetricsRecorder receives analysis outcomes
type MetricsRecorder interface {
	ObserveAnalysis(result *SpamAnalysisResult, newSender bool, elapsed time.Duration)
	StoreFailure(op string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAnalysis(*SpamAnalysisResult, bool, time.Duration) {}
func (nopRecorder) StoreFailure(string)                                       {}
