// Package queue moves sync events between the ingest side and the worker
// over a Redis stream with consumer groups, retries, and a dead letter
// stream.
package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"chatsync.app/bridge/internal/crm"
)

type Producer interface {
	Enqueue(ctx context.Context, event crm.Event) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, event crm.Event) error {
	fields := eventValues(event, 1)

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued sync event",
		"hook_id", event.HookID,
		"event_type", event.Type,
		"contact_id", event.ContactID,
		"conversation_id", event.ConversationID,
		"message_id", event.MessageID)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}

func eventValues(event crm.Event, attempt int) map[string]any {
	if attempt <= 0 {
		attempt = 1
	}
	values := map[string]any{
		"hook_id":    event.HookID,
		"event_type": string(event.Type),
		"attempt":    attempt,
	}
	if event.ContactID != 0 {
		values["contact_id"] = event.ContactID
	}
	if event.ConversationID != 0 {
		values["conversation_id"] = event.ConversationID
	}
	if event.MessageID != 0 {
		values["message_id"] = event.MessageID
	}
	return values
}
