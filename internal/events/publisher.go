// Package events publishes discovery lifecycle events to Redis Streams.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
)

// asyncPublishTimeout is the context timeout for async publish operations.
const asyncPublishTimeout = 5 * time.Second

// Publisher publishes discovery events to a Redis stream.
type Publisher struct {
	client redis.Cmdable
	stream string
	log    infralogger.Logger

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewPublisher creates a new event publisher.
// Returns nil if client is nil; a nil *Publisher is a valid no-op.
func NewPublisher(client redis.Cmdable, log infralogger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	if log == nil {
		log = infralogger.NewNop()
	}
	return &Publisher{
		client: client,
		stream: StreamName,
		log:    log,
	}
}

// Publish appends an event to the stream.
func (p *Publisher) Publish(ctx context.Context, event DiscoveryEvent) error {
	if p == nil || p.client == nil {
		return nil
	}

	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_type": string(event.EventType),
			"event":      string(payload),
		},
	})
	if publishErr := result.Err(); publishErr != nil {
		return fmt.Errorf("publish to stream: %w", publishErr)
	}

	p.log.Debug("Published discovery event",
		infralogger.String("event_type", string(event.EventType)),
		infralogger.String("subject_id", event.subject()),
		infralogger.String("stream_id", result.Val()),
	)
	return nil
}

// PublishAsync publishes an event in the background.
// Errors are logged but not returned. Events sent after Close are dropped.
func (p *Publisher) PublishAsync(event DiscoveryEvent) {
	if p == nil {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.log.Warn("Publisher closed, dropping event",
			infralogger.String("event_type", string(event.EventType)),
			infralogger.String("subject_id", event.subject()),
		)
		return
	}
	p.inflight.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil {
			p.log.Error("Async publish failed",
				infralogger.String("event_type", string(event.EventType)),
				infralogger.String("subject_id", event.subject()),
				infralogger.Error(err),
			)
		}
	}()
}

// Wait blocks until every in-flight async publish has finished, or until ctx is
// done. Each publish carries its own timeout, so the wait is also bounded by that.
func (p *Publisher) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for pending events: %w", ctx.Err())
	}
}

// Close stops accepting async events and drains the ones already in flight.
// It must be called before the underlying Redis client is closed.
func (p *Publisher) Close(ctx context.Context) error {
	if p == nil {
		return nil
	}

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, asyncPublishTimeout)
	defer cancel()
	return p.Wait(ctx)
}
