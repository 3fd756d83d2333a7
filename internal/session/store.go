// Package session persists per-session extraction results. Three backends
// implement the same Store interface: in-memory for single-node runs, Redis
// for shared state and Postgres for durable state.
package session

import (
	"context"

	"github.com/djmwong/document-automation/internal/models"
)

// Store persists extraction sessions.
type Store interface {
	// Save upserts a session record.
	Save(ctx context.Context, ex *models.Extraction) error
	// Find returns the session or sentinel.ErrNotFound.
	Find(ctx context.Context, sessionID string) (*models.Extraction, error)
	// Delete removes the session, returning sentinel.ErrNotFound when it
	// does not exist.
	Delete(ctx context.Context, sessionID string) error
	// Close releases backend resources.
	Close() error
}
