package worker

import (
	"context"

	"chatsync.app/bridge/internal/crm"
	"chatsync.app/bridge/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// EventProcessor abstracts the sync engine for testability.
type EventProcessor interface {
	Process(ctx context.Context, event crm.Event) error
}
