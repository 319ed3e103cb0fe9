package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the HistoryStore interface
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore creates a new SQLite history store
func NewSQLiteStore(dbPath string, limit int, logger *zap.Logger) (*SQLiteStore, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sender_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sender TEXT NOT NULL,
			sent_at INTEGER NOT NULL,
			subject TEXT NOT NULL,
			recipients_count INTEGER NOT NULL,
			content_hash TEXT NOT NULL,
			hour_of_day INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_sender_history_sender ON sender_history(sender, id)`,
		`CREATE INDEX IF NOT EXISTS idx_sender_history_sent_at ON sender_history(sent_at)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create index: %w", err)
		}
	}

	return &SQLiteStore{
		sqlStore: &sqlStore{db: db, limit: limit, logger: logger, name: "SQLite"},
	}, nil
}
