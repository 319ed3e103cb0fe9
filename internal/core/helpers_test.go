package core

import (
	"context"
	"sync"
	"time"
)

// fakeStore is an in-memory HistoryStore with injectable failures
type fakeStore struct {
	mu         sync.Mutex
	senders    map[string][]EmailRecord
	historyErr error
	appendErr  error
	persistErr error
	pruneErr   error
	persists   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{senders: make(map[string][]EmailRecord)}
}

func (s *fakeStore) Load(context.Context) error { return nil }

func (s *fakeStore) History(_ context.Context, sender string) ([]EmailRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return append([]EmailRecord(nil), s.senders[sender]...), nil
}

func (s *fakeStore) Append(_ context.Context, sender string, record EmailRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.senders[sender] = append(s.senders[sender], record)
	return nil
}

func (s *fakeStore) Persist(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persists++
	return s.persistErr
}

func (s *fakeStore) Prune(_ context.Context, retention time.Duration) (int, error) {
	if s.pruneErr != nil {
		return 0, s.pruneErr
	}
	return 0, nil
}

func (s *fakeStore) Senders(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.senders))
	for k := range s.senders {
		out = append(out, k)
	}
	return out, nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) records(sender string) []EmailRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.senders[sender]
}

// fakeRecorder counts what the pipeline reports
type fakeRecorder struct {
	mu         sync.Mutex
	analyses   []*SpamAnalysisResult
	newSenders int
	failures   map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{failures: make(map[string]int)}
}

func (r *fakeRecorder) ObserveAnalysis(result *SpamAnalysisResult, newSender bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyses = append(r.analyses, result)
	if newSender {
		r.newSenders++
	}
}

func (r *fakeRecorder) StoreFailure(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[op]++
}

func ptr(v float64) *float64 { return &v }
