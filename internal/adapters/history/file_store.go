package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mikey/spam-risk-scorer/internal/core"
	"go.uber.org/zap"
)

// FileStore keeps the whole history in memory and rewrites one JSON document
// keyed by sender after every mutation.
type FileStore struct {
	*MemoryStore
	path    string
	writeMu sync.Mutex
	logger  *zap.Logger
}

// NewFileStore creates a new JSON file history store. Call Load before use.
func NewFileStore(path string, limit int, logger *zap.Logger) *FileStore {
	return &FileStore{
		MemoryStore: NewMemoryStore(limit, logger),
		path:        path,
		logger:      logger,
	}
}

// Load reads the document. A missing file yields an empty history and a
// corrupt or unreadable one is logged and replaced by an empty history.
func (s *FileStore) Load(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("No sender history file, starting empty", zap.String("path", s.path))
		} else {
			s.logger.Error("Failed to read sender history file, starting empty",
				zap.String("path", s.path), zap.Error(err))
		}
		s.replace(make(map[string][]core.EmailRecord))
		return nil
	}

	senders := make(map[string][]core.EmailRecord)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &senders); err != nil {
			s.logger.Error("Sender history file is corrupt, previous history is lost",
				zap.String("path", s.path),
				zap.Bool("data_loss", true),
				zap.Error(err))
			senders = make(map[string][]core.EmailRecord)
		}
	}
	s.replace(senders)

	s.logger.Info("Loaded sender history",
		zap.String("path", s.path),
		zap.Int("senders", len(senders)))
	return nil
}

// Persist overwrites the document with the current history
func (s *FileStore) Persist(ctx context.Context) error {
	s.mu.RLock()
	data, err := json.Marshal(s.senders)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode sender history: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return writeFileAtomic(s.path, data)
}

// Prune removes old records and persists the result
func (s *FileStore) Prune(ctx context.Context, retention time.Duration) (int, error) {
	removed, err := s.MemoryStore.Prune(ctx, retention)
	if err != nil {
		return removed, err
	}
	if err := s.Persist(ctx); err != nil {
		return removed, err
	}
	return removed, nil
}

// writeFileAtomic replaces path with data through a temporary file in the same directory
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sender-history-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary history file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close history file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}
