// Package audit emits key actions to a Kafka topic so downstream systems can
// trace what was extracted and which forms were filled. The stream is
// optional; a nil Publisher drops events.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Actions recorded on the stream.
const (
	ActionPassportExtracted = "passport_extracted"
	ActionG28Extracted      = "g28_extracted"
	ActionFormFilled        = "form_filled"
	ActionSessionDeleted    = "session_deleted"
)

// Event is emitted from handlers to capture key actions. Keep it transport
// agnostic so a different sink can replace Kafka without touching callers.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	SessionID string    `json:"session_id"`
	Method    string    `json:"method,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	Client    string    `json:"client,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Publisher writes events to Kafka, keyed by session so one session's events
// stay ordered within a partition.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *zap.Logger
}

// NewPublisher connects to the brokers. Returns nil when brokers is empty,
// which callers treat as auditing disabled.
func NewPublisher(brokers []string, topic string, logger *zap.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// Publish sends one event. Failures are logged, not returned: auditing never
// blocks the request path.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal audit event", zap.Error(err))
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.SessionID),
		Value: value,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("publish audit event",
				zap.String("action", event.Action),
				zap.Error(err),
			)
		}
	})
}

// Close flushes pending events and releases the client.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
