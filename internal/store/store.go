package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no document has been persisted for a room.
var ErrNotFound = errors.New("document not found")

// RoomDocument is the persisted state of a room's shared buffer.
type RoomDocument struct {
	RoomID    string
	Document  string
	UpdatedAt time.Time
}

// DocumentStore persists the authoritative document of each room.
// The hub reads it once when a room is created and writes it on every
// accepted edit; a write failure is logged and never surfaced to editors.
type DocumentStore interface {
	// GetDocument returns the last persisted document for a room.
	// Returns ErrNotFound if the room has never been saved.
	GetDocument(ctx context.Context, roomID string) (string, error)

	// PutDocument saves the current document for a room, overwriting
	// any previous version.
	PutDocument(ctx context.Context, roomID, document string) error

	// Close closes the underlying database connection.
	Close() error
}
