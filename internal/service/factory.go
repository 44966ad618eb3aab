package service

import (
	"log/slog"

	"chatsync.app/bridge/internal/queue"
	"chatsync.app/bridge/internal/store"
)

type Services struct {
	stores   *store.Stores
	txRunner TxRunner
	producer queue.Producer
	logger   *slog.Logger
}

func NewServices(stores *store.Stores, txRunner TxRunner, producer queue.Producer, logger *slog.Logger) *Services {
	return &Services{
		stores:   stores,
		txRunner: txRunner,
		producer: producer,
		logger:   logger,
	}
}

func (s *Services) EventIngest() EventIngestService {
	return NewEventIngestService(s.stores.Hooks(), s.txRunner, s.producer, s.logger)
}

func (s *Services) Hooks() HookService {
	return NewHookService(s.stores.Hooks())
}

func (s *Services) Setup() SetupService {
	return NewSetupService(s.Hooks(), s.logger)
}
