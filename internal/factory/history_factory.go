package factory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/spam-risk-scorer/internal/adapters/history"
	"github.com/mikey/spam-risk-scorer/internal/config"
	"github.com/mikey/spam-risk-scorer/internal/core"
	"go.uber.org/zap"
)

// ErrUnsupportedBackend is returned for an unknown history.backend
var ErrUnsupportedBackend = errors.New("unsupported history backend")

// HistoryFactory creates history stores based on configuration
type HistoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHistoryFactory creates a new history factory
func NewHistoryFactory(cfg *config.Config, logger *zap.Logger) *HistoryFactory {
	return &HistoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateHistoryStore creates the configured store and loads its persisted state
func (f *HistoryFactory) CreateHistoryStore(ctx context.Context) (core.HistoryStore, error) {
	store, err := f.open()
	if err != nil {
		return nil, err
	}
	if err := store.Load(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load sender history: %w", err)
	}
	return store, nil
}

func (f *HistoryFactory) open() (core.HistoryStore, error) {
	h := f.cfg.GetHistory()
	logger := f.logger.With(zap.String("backend", h.Backend))
	logger.Info("Opening sender history", zap.Int("max_records", h.MaxRecords))

	switch h.Backend {
	case "memory":
		return history.NewMemoryStore(h.MaxRecords, logger), nil
	case "file":
		return history.NewFileStore(h.Path, h.MaxRecords, logger), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(h.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return history.NewSQLiteStore(h.SQLitePath, h.MaxRecords, logger)
	case "mysql":
		return history.NewMySQLStore(h.MySQLDSN, h.MaxRecords, logger)
	case "redis":
		return history.NewRedisStore(h.RedisURL, h.RedisPrefix, h.MaxRecords, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, h.Backend)
	}
}
