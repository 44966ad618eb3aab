package krayin_test

import (
	"context"
	"strconv"
	"sync"

	"chatsync.app/bridge/internal/crm/krayin"
	"chatsync.app/bridge/internal/model"
	"chatsync.app/bridge/internal/store"
)

type mockPersonAPI struct {
	searchFn    func(ctx context.Context, email, phone string) ([]krayin.Record, error)
	createFn    func(ctx context.Context, payload map[string]any) (krayin.Record, error)
	createCalls int
}

func (m *mockPersonAPI) SearchPersons(ctx context.Context, email, phone string) ([]krayin.Record, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, email, phone)
	}
	return nil, nil
}

func (m *mockPersonAPI) CreatePerson(ctx context.Context, payload map[string]any) (krayin.Record, error) {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, payload)
	}
	return krayin.Record{"id": float64(101)}, nil
}

type mockLeadAPI struct {
	searchFn    func(ctx context.Context, email, phone string) ([]krayin.Record, error)
	createFn    func(ctx context.Context, payload map[string]any) (krayin.Record, error)
	createCalls int
}

func (m *mockLeadAPI) SearchLeads(ctx context.Context, email, phone string) ([]krayin.Record, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, email, phone)
	}
	return nil, nil
}

func (m *mockLeadAPI) CreateLead(ctx context.Context, payload map[string]any) (krayin.Record, error) {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, payload)
	}
	return krayin.Record{"id": float64(201)}, nil
}

type mockMessageStore struct {
	listRecentFn  func(ctx context.Context, conversationID int64, limit int32) ([]model.Message, error)
	hasOutgoingFn func(ctx context.Context, conversationID int64) (bool, error)
}

func (m *mockMessageStore) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	return nil, store.ErrNotFound
}

func (m *mockMessageStore) Upsert(ctx context.Context, msg *model.Message) error { return nil }

func (m *mockMessageStore) ListByConversationAfter(ctx context.Context, conversationID, afterID int64, limit int32) ([]model.Message, error) {
	return nil, nil
}

func (m *mockMessageStore) ListRecentByConversation(ctx context.Context, conversationID int64, limit int32) ([]model.Message, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, conversationID, limit)
	}
	return nil, nil
}

func (m *mockMessageStore) HasOutgoingMessage(ctx context.Context, conversationID int64) (bool, error) {
	if m.hasOutgoingFn != nil {
		return m.hasOutgoingFn(ctx, conversationID)
	}
	return false, nil
}

// memoryLinkStore keeps external links in a map so identity round trips can
// be asserted without a database.
type memoryLinkStore struct {
	mu     sync.Mutex
	nextID int64
	links  map[string]*model.ExternalLink
}

func newMemoryLinkStore() *memoryLinkStore {
	return &memoryLinkStore{links: map[string]*model.ExternalLink{}}
}

func linkKey(hookID int64, kind model.RecordKind, recordID int64) string {
	return strconv.FormatInt(hookID, 10) + ":" + string(kind) + ":" + strconv.FormatInt(recordID, 10)
}

func (m *memoryLinkStore) Get(ctx context.Context, hookID int64, kind model.RecordKind, recordID int64) (*model.ExternalLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[linkKey(hookID, kind, recordID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *link
	return &copied, nil
}

func (m *memoryLinkStore) UpsertSourceID(ctx context.Context, hookID int64, kind model.RecordKind, recordID int64, sourceID string) (*model.ExternalLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := linkKey(hookID, kind, recordID)
	link, ok := m.links[key]
	if !ok {
		m.nextID++
		link = &model.ExternalLink{ID: m.nextID, HookID: hookID, RecordKind: kind, RecordID: recordID}
		m.links[key] = link
	}
	link.SourceID = sourceID
	copied := *link
	return &copied, nil
}

func (m *memoryLinkStore) SetLastSyncedMessage(ctx context.Context, linkID int64, messageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, link := range m.links {
		if link.ID == linkID {
			id := messageID
			link.LastSyncedMessageID = &id
			return nil
		}
	}
	return store.ErrNotFound
}

// localLocker serializes within the test process the way the Redis locker
// does across processes.
type localLocker struct {
	mu sync.Mutex
}

func (l *localLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}
