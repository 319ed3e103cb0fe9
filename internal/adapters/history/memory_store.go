package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mikey/spam-risk-scorer/internal/core"
	"go.uber.org/zap"
)

// DefaultLimit is the number of records kept per sender
const DefaultLimit = 100

// MemoryStore is an in-memory implementation of the HistoryStore interface
type MemoryStore struct {
	mu      sync.RWMutex
	senders map[string][]core.EmailRecord
	limit   int
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory history store keeping at most limit records per sender
func NewMemoryStore(limit int, logger *zap.Logger) *MemoryStore {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &MemoryStore{
		senders: make(map[string][]core.EmailRecord),
		limit:   limit,
		logger:  logger,
	}
}

// Load is a no-op for the memory store
func (s *MemoryStore) Load(ctx context.Context) error {
	return nil
}

// History returns a copy of the records of a sender
func (s *MemoryStore) History(ctx context.Context, sender string) ([]core.EmailRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.senders[sender]
	out := make([]core.EmailRecord, len(records))
	copy(out, records)
	return out, nil
}

// Append adds a record, evicting the oldest ones above the limit
func (s *MemoryStore) Append(ctx context.Context, sender string, record core.EmailRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.senders[sender] = capRecords(append(s.senders[sender], record), s.limit)
	return nil
}

// Persist is a no-op for the memory store
func (s *MemoryStore) Persist(ctx context.Context) error {
	return nil
}

// Prune removes records older than retention and senders left empty
func (s *MemoryStore) Prune(ctx context.Context, retention time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return pruneMap(s.senders, time.Now().Add(-retention)), nil
}

// Senders lists the stored sender keys in sorted order
func (s *MemoryStore) Senders(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedKeys(s.senders), nil
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}

// replace swaps the whole mapping, trimming each sender to the limit
func (s *MemoryStore) replace(senders map[string][]core.EmailRecord) {
	for k, v := range senders {
		senders[k] = capRecords(v, s.limit)
	}
	s.mu.Lock()
	s.senders = senders
	s.mu.Unlock()
}

// capRecords keeps the newest limit records, dropping from the front
func capRecords(records []core.EmailRecord, limit int) []core.EmailRecord {
	if len(records) <= limit {
		return records
	}
	trimmed := make([]core.EmailRecord, limit)
	copy(trimmed, records[len(records)-limit:])
	return trimmed
}

func pruneMap(senders map[string][]core.EmailRecord, cutoff time.Time) int {
	removed := 0
	for sender, records := range senders {
		kept := records[:0:0]
		for _, r := range records {
			if r.Date.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(senders, sender)
		} else {
			senders[sender] = kept
		}
	}
	return removed
}

func sortedKeys(senders map[string][]core.EmailRecord) []string {
	keys := make([]string, 0, len(senders))
	for k := range senders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
