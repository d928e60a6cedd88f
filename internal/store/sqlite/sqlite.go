package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hivemind/hivemind-server/internal/store"
)

// Schema holds the table layout for room documents. Applied on startup;
// CREATE TABLE IF NOT EXISTS keeps it idempotent across restarts.
const Schema = `
CREATE TABLE IF NOT EXISTS room_documents (
	room_id    TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore implements store.DocumentStore for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetDocument returns the last persisted document for a room.
func (s *SQLiteStore) GetDocument(ctx context.Context, roomID string) (string, error) {
	query := `
		SELECT document
		FROM room_documents
		WHERE room_id = ?
	`
	var document string
	err := s.db.QueryRowContext(ctx, query, roomID).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select document: %w", err)
	}
	return document, nil
}

// PutDocument saves the current document for a room, overwriting any
// previous version.
func (s *SQLiteStore) PutDocument(ctx context.Context, roomID, document string) error {
	query := `
		INSERT INTO room_documents (room_id, document, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(room_id) DO UPDATE SET
			document = excluded.document,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, roomID, document); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}
