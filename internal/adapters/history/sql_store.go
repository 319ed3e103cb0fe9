package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/spam-risk-scorer/internal/core"
	"go.uber.org/zap"
)

// sqlStore holds the queries shared by the SQLite and MySQL stores.
// Every Append is committed, so Persist has nothing to do.
type sqlStore struct {
	db     *sql.DB
	limit  int
	logger *zap.Logger
	name   string
}

// Load checks that the database is reachable
func (s *sqlStore) Load(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", s.name, err)
	}
	return nil
}

// History returns the records of a sender in insertion order
func (s *sqlStore) History(ctx context.Context, sender string) ([]core.EmailRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sent_at, subject, recipients_count, content_hash, hour_of_day, day_of_week
		FROM sender_history
		WHERE sender = ?
		ORDER BY id ASC
	`, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []core.EmailRecord
	for rows.Next() {
		var (
			r      core.EmailRecord
			sentAt int64
			day    int
		)
		if err := rows.Scan(&sentAt, &r.Subject, &r.RecipientsCount, &r.ContentHash, &r.HourOfDay, &day); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.Date = time.Unix(0, sentAt).UTC()
		r.DayOfWeek = core.Weekday(day)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return records, nil
}

// Append inserts a record and trims the sender to the limit in one transaction
func (s *sqlStore) Append(ctx context.Context, sender string, record core.EmailRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sender_history (sender, sent_at, subject, recipients_count, content_hash, hour_of_day, day_of_week)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sender, record.Date.UnixNano(), record.Subject, record.RecipientsCount, record.ContentHash, record.HourOfDay, int(record.DayOfWeek))
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}

	// The id of the oldest record to keep; everything before it is evicted
	var oldestKept int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM sender_history
		WHERE sender = ?
		ORDER BY id DESC
		LIMIT 1 OFFSET ?
	`, sender, s.limit-1).Scan(&oldestKept)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to find eviction boundary: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM sender_history
			WHERE sender = ? AND id < ?
		`, sender, oldestKept); err != nil {
			return fmt.Errorf("failed to evict old history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history record: %w", err)
	}
	return nil
}

// Persist is a no-op, appends are already durable
func (s *sqlStore) Persist(ctx context.Context) error {
	return nil
}

// Prune removes records older than retention. Senders without rows disappear with them.
func (s *sqlStore) Prune(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention).UnixNano()
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM sender_history
		WHERE sent_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during prune", zap.Error(err))
		return 0, nil
	}
	s.logger.Debug("Pruned history records", zap.Int64("removed_count", rowsAffected))
	return int(rowsAffected), nil
}

// Senders lists the stored sender keys
func (s *sqlStore) Senders(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT sender FROM sender_history ORDER BY sender
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query senders: %w", err)
	}
	defer rows.Close()

	var senders []string
	for rows.Next() {
		var sender string
		if err := rows.Scan(&sender); err != nil {
			return nil, fmt.Errorf("failed to scan sender: %w", err)
		}
		senders = append(senders, sender)
	}
	return senders, rows.Err()
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close %s database: %w", s.name, err)
	}
	return nil
}
