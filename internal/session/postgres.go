package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/djmwong/document-automation/internal/models"
	"github.com/djmwong/document-automation/pkg/sentinel"
)

// Postgres stores one JSONB row per session. Expiry is enforced on read so
// the table needs no background job; stale rows are cleared opportunistically
// on Save.
type Postgres struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS extraction_sessions (
	session_id TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// NewPostgres connects, pings and ensures the schema exists.
func NewPostgres(ctx context.Context, url string, ttl time.Duration) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Postgres{pool: pool, ttl: ttl}, nil
}

func (s *Postgres) Save(ctx context.Context, ex *models.Extraction) error {
	b, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", ex.SessionID, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO extraction_sessions (session_id, data, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE SET data = EXCLUDED.data`,
		ex.SessionID, b, ex.CreatedAt)
	if err != nil {
		return fmt.Errorf("save session %s: %w", ex.SessionID, err)
	}

	if s.ttl > 0 {
		_, _ = s.pool.Exec(ctx,
			`DELETE FROM extraction_sessions WHERE created_at < $1`,
			time.Now().Add(-s.ttl))
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, sessionID string) (*models.Extraction, error) {
	var b []byte
	var createdAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT data, created_at FROM extraction_sessions WHERE session_id = $1`,
		sessionID).Scan(&b, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session %s: %w", sessionID, err)
	}
	if s.ttl > 0 && time.Since(createdAt) > s.ttl {
		return nil, sentinel.ErrNotFound
	}

	var ex models.Extraction
	if err := json.Unmarshal(b, &ex); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return &ex, nil
}

func (s *Postgres) Delete(ctx context.Context, sessionID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM extraction_sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
