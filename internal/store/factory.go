package store

import (
	"chatsync.app/bridge/core/db"
)

type Stores struct {
	q db.Querier
}

func NewStores(q db.Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Hooks() HookStore {
	return newHookStore(s.q)
}

func (s *Stores) Contacts() ContactStore {
	return newContactStore(s.q)
}

func (s *Stores) Conversations() ConversationStore {
	return newConversationStore(s.q)
}

func (s *Stores) Messages() MessageStore {
	return newMessageStore(s.q)
}

func (s *Stores) ExternalLinks() ExternalLinkStore {
	return newExternalLinkStore(s.q)
}
