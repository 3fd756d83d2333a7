package session

import (
	"context"
	"sync"
	"time"

	"github.com/djmwong/document-automation/internal/models"
	"github.com/djmwong/document-automation/pkg/sentinel"
)

// Memory is the default single-node store. Entries expire after the given
// TTL; expiry is enforced lazily on read and by Sweep.
type Memory struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]*models.Extraction
	now      func() time.Time
}

// NewMemory creates an in-memory store. A zero ttl disables expiry.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:      ttl,
		sessions: make(map[string]*models.Extraction),
		now:      time.Now,
	}
}

func (s *Memory) Save(_ context.Context, ex *models.Extraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[ex.SessionID] = ex
	return nil
}

func (s *Memory) Find(_ context.Context, sessionID string) (*models.Extraction, error) {
	s.mu.RLock()
	ex, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok || s.expired(ex) {
		return nil, sentinel.ErrNotFound
	}
	// Copy so callers can mutate and re-Save without racing other readers.
	cp := *ex
	return &cp, nil
}

func (s *Memory) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *Memory) Close() error { return nil }

// Sweep drops expired sessions. Run returns when ctx is done.
func (s *Memory) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *Memory) sweepOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ex := range s.sessions {
		if s.expired(ex) {
			delete(s.sessions, id)
		}
	}
}

func (s *Memory) expired(ex *models.Extraction) bool {
	return s.ttl > 0 && s.now().Sub(ex.CreatedAt) > s.ttl
}
