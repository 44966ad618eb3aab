package glpi_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatsync.app/bridge/internal/crm"
	"chatsync.app/bridge/internal/crm/glpi"
	"chatsync.app/bridge/internal/model"
)

var _ = Describe("UserFinder", func() {
	var (
		userAPI   *mockUserAPI
		linkStore *memoryLinkStore
		links     *crm.Links
		ctx       context.Context
	)

	contact := func() *model.Contact {
		return &model.Contact{ID: 1, Name: "Ada Lovelace", Email: "ada@example.com"}
	}

	BeforeEach(func() {
		ctx = context.Background()
		userAPI = &mockUserAPI{}
		linkStore = newMemoryLinkStore()
		links = crm.NewLinks(linkStore, 7, "glpi")
	})

	It("should return the stored id without touching the remote", func() {
		Expect(links.Store(ctx, model.RecordKindContact, 1, "user", "42")).To(Succeed())
		userAPI.searchFn = func(ctx context.Context, email string) ([]string, error) {
			Fail("search should not be called")
			return nil, nil
		}

		finder := glpi.NewUserFinder(userAPI, links, 0)
		id, err := finder.FindOrCreate(ctx, contact())
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("42"))
		Expect(userAPI.createCalls).To(BeZero())
	})

	It("should adopt an existing user found by email", func() {
		userAPI.searchFn = func(ctx context.Context, email string) ([]string, error) {
			Expect(email).To(Equal("ada@example.com"))
			return []string{"42"}, nil
		}

		finder := glpi.NewUserFinder(userAPI, links, 0)
		id, err := finder.FindOrCreate(ctx, contact())
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("42"))
		Expect(userAPI.createCalls).To(BeZero())
	})

	It("should create a user for phone-only contacts without searching", func() {
		userAPI.searchFn = func(ctx context.Context, email string) ([]string, error) {
			Fail("search should not be called without an email")
			return nil, nil
		}

		finder := glpi.NewUserFinder(userAPI, links, 0)
		id, err := finder.FindOrCreate(ctx, &model.Contact{ID: 1, Name: "Ada", PhoneNumber: "+14155552671"})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("42"))
		Expect(userAPI.createCalls).To(Equal(1))
	})

	It("should treat a failed search as a miss and create", func() {
		userAPI.searchFn = func(ctx context.Context, email string) ([]string, error) {
			return nil, errors.New("search exploded")
		}

		finder := glpi.NewUserFinder(userAPI, links, 0)
		id, err := finder.FindOrCreate(ctx, contact())
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("42"))
		Expect(userAPI.createCalls).To(Equal(1))
	})

	It("should fail loudly when the create returns no id", func() {
		userAPI.createFn = func(ctx context.Context, payload map[string]any) (string, error) {
			return "", nil
		}

		finder := glpi.NewUserFinder(userAPI, links, 0)
		_, err := finder.FindOrCreate(ctx, contact())
		Expect(err).To(MatchError(glpi.ErrMissingID))
	})

	It("should pass the entity through to the create payload", func() {
		var created map[string]any
		userAPI.createFn = func(ctx context.Context, payload map[string]any) (string, error) {
			created = payload
			return "42", nil
		}

		finder := glpi.NewUserFinder(userAPI, links, 3)
		_, err := finder.FindOrCreate(ctx, contact())
		Expect(err).NotTo(HaveOccurred())
		Expect(created["entities_id"]).To(Equal(3))
	})
})

var _ = Describe("ContactFinder", func() {
	var (
		contactAPI *mockContactAPI
		links      *crm.Links
		ctx        context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		contactAPI = &mockContactAPI{}
		links = crm.NewLinks(newMemoryLinkStore(), 7, "glpi")
	})

	It("should prefer the stored id", func() {
		Expect(links.Store(ctx, model.RecordKindContact, 1, "contact", "43")).To(Succeed())

		finder := glpi.NewContactFinder(contactAPI, links, 0)
		id, err := finder.FindOrCreate(ctx, &model.Contact{ID: 1, Name: "Ada", Email: "ada@example.com"})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("43"))
		Expect(contactAPI.createCalls).To(BeZero())
	})

	It("should create when nothing matches", func() {
		finder := glpi.NewContactFinder(contactAPI, links, 0)
		id, err := finder.FindOrCreate(ctx, &model.Contact{ID: 1, Name: "Ada", Email: "ada@example.com"})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("43"))
		Expect(contactAPI.createCalls).To(Equal(1))
	})
})
