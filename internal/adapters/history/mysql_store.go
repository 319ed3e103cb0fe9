package history

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the HistoryStore interface
type MySQLStore struct {
	*sqlStore
}

// NewMySQLStore creates a new MySQL history store
func NewMySQLStore(dsn string, limit int, logger *zap.Logger) (*MySQLStore, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sender_history (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			sender VARCHAR(320) NOT NULL,
			sent_at BIGINT NOT NULL,
			subject TEXT NOT NULL,
			recipients_count INT NOT NULL,
			content_hash CHAR(8) NOT NULL,
			hour_of_day TINYINT NOT NULL,
			day_of_week TINYINT NOT NULL,
			INDEX idx_sender_history_sender (sender, id),
			INDEX idx_sender_history_sent_at (sent_at)
		) CHARACTER SET utf8mb4
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{
		sqlStore: &sqlStore{db: db, limit: limit, logger: logger, name: "MySQL"},
	}, nil
}
