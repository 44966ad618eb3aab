package service

import (
	"context"

	"chatsync.app/bridge/core/db"
	"chatsync.app/bridge/internal/store"
)

// StoreProvider exposes only the stores a transactional operation needs.
type StoreProvider interface {
	Hooks() store.HookStore
	Contacts() store.ContactStore
	Conversations() store.ConversationStore
	Messages() store.MessageStore
	ExternalLinks() store.ExternalLinkStore
}

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(db *db.DB) TxRunner {
	return &dbTxRunner{db: db}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q db.Querier) error {
		return fn(store.NewStores(q))
	})
}
