package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/djmwong/document-automation/internal/models"
	"github.com/djmwong/document-automation/pkg/sentinel"
)

// Redis stores sessions as JSON values with a TTL, letting Redis handle
// expiry that the memory store sweeps by hand.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection before returning.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

// NewRedisFromClient wraps an existing client. Used by integration tests.
func NewRedisFromClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func key(sessionID string) string { return "docauto:session:" + sessionID }

func (s *Redis) Save(ctx context.Context, ex *models.Extraction) error {
	b, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", ex.SessionID, err)
	}
	if err := s.client.Set(ctx, key(ex.SessionID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", ex.SessionID, err)
	}
	return nil
}

func (s *Redis) Find(ctx context.Context, sessionID string) (*models.Extraction, error) {
	b, err := s.client.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session %s: %w", sessionID, err)
	}

	var ex models.Extraction
	if err := json.Unmarshal(b, &ex); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return &ex, nil
}

func (s *Redis) Delete(ctx context.Context, sessionID string) error {
	n, err := s.client.Del(ctx, key(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Redis) Close() error { return s.client.Close() }
