package krayin_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatsync.app/bridge/core/config"
	"chatsync.app/bridge/internal/crm"
	"chatsync.app/bridge/internal/crm/krayin"
	"chatsync.app/bridge/internal/model"
)

var _ = Describe("PersonFinder", func() {
	var (
		ctx     context.Context
		client  *mockPersonAPI
		links   *crm.Links
		finder  *krayin.PersonFinder
		contact *model.Contact
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &mockPersonAPI{}
		links = crm.NewLinks(newMemoryLinkStore(), 7, "krayin")
		finder = krayin.NewPersonFinder(client, links)
		contact = &model.Contact{ID: 1, Name: "Ada Lovelace", Email: "ada@example.com", PhoneNumber: "+14155552671"}
	})

	It("should return the stored id without any remote call", func() {
		Expect(links.Store(ctx, model.RecordKindContact, 1, "person", "55")).To(Succeed())
		searches := 0
		client.searchFn = func(_ context.Context, _, _ string) ([]krayin.Record, error) {
			searches++
			return nil, nil
		}

		id, err := finder.FindOrCreate(ctx, contact)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("55"))
		Expect(searches).To(BeZero())
		Expect(client.createCalls).To(BeZero())
	})

	It("should short-circuit on an email match", func() {
		client.searchFn = func(_ context.Context, email, phone string) ([]krayin.Record, error) {
			if email == "ada@example.com" {
				return []krayin.Record{{"id": float64(77)}}, nil
			}
			return nil, nil
		}

		id, err := finder.FindOrCreate(ctx, contact)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("77"))
		Expect(client.createCalls).To(BeZero())
	})

	It("should fall back to phone search before creating", func() {
		client.searchFn = func(_ context.Context, email, phone string) ([]krayin.Record, error) {
			if phone != "" {
				return []krayin.Record{{"id": float64(88)}}, nil
			}
			return nil, nil
		}

		id, err := finder.FindOrCreate(ctx, contact)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("88"))
		Expect(client.createCalls).To(BeZero())
	})

	It("should treat search failures as a miss and create", func() {
		client.searchFn = func(_ context.Context, _, _ string) ([]krayin.Record, error) {
			return nil, errors.New("search exploded")
		}

		id, err := finder.FindOrCreate(ctx, contact)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("101"))
		Expect(client.createCalls).To(Equal(1))
	})

	It("should be idempotent when the backend returns the created entity on later searches", func() {
		var created []krayin.Record
		client.searchFn = func(_ context.Context, _, _ string) ([]krayin.Record, error) {
			return created, nil
		}
		client.createFn = func(_ context.Context, _ map[string]any) (krayin.Record, error) {
			record := krayin.Record{"id": float64(101)}
			created = []krayin.Record{record}
			return record, nil
		}

		first, err := finder.FindOrCreate(ctx, contact)
		Expect(err).NotTo(HaveOccurred())
		second, err := finder.FindOrCreate(ctx, contact)
		Expect(err).NotTo(HaveOccurred())

		Expect(first).To(Equal(second))
		Expect(client.createCalls).To(Equal(1))
	})

	It("should fail loudly when a create returns no id", func() {
		client.createFn = func(_ context.Context, _ map[string]any) (krayin.Record, error) {
			return krayin.Record{"name": "Ada Lovelace"}, nil
		}

		_, err := finder.FindOrCreate(ctx, contact)
		Expect(errors.Is(err, krayin.ErrMissingID)).To(BeTrue())
	})

	It("should propagate create failures", func() {
		client.createFn = func(_ context.Context, _ map[string]any) (krayin.Record, error) {
			return nil, errors.New("create failed")
		}

		_, err := finder.FindOrCreate(ctx, contact)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("LeadFinder", func() {
	var (
		ctx     context.Context
		client  *mockLeadAPI
		links   *crm.Links
		finder  *krayin.LeadFinder
		contact *model.Contact
	)

	brand := config.BrandConfig{Name: "Chatsync", FrontendURL: "https://chat.example.com"}

	BeforeEach(func() {
		ctx = context.Background()
		client = &mockLeadAPI{}
		links = crm.NewLinks(newMemoryLinkStore(), 7, "krayin")
		finder = krayin.NewLeadFinder(client, links, brand)
		contact = &model.Contact{ID: 1, Name: "Ada Lovelace", Email: "ada@example.com"}
	})

	It("should prefer the stored lead id", func() {
		Expect(links.Store(ctx, model.RecordKindContact, 1, "lead", "42")).To(Succeed())

		id, err := finder.FindOrCreate(ctx, contact, "101", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("42"))
		Expect(client.createCalls).To(BeZero())
	})

	It("should create a lead carrying the person id and setup defaults", func() {
		var payload map[string]any
		client.createFn = func(_ context.Context, p map[string]any) (krayin.Record, error) {
			payload = p
			return krayin.Record{"id": float64(201)}, nil
		}

		settings := map[string]any{"default_pipeline_id": float64(1), "default_stage_id": float64(2)}
		id, err := finder.FindOrCreate(ctx, contact, "101", settings)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("201"))
		Expect(payload["person_id"]).To(Equal(int64(101)))
		Expect(payload["lead_pipeline_id"]).To(Equal(float64(1)))
		Expect(payload["lead_pipeline_stage_id"]).To(Equal(float64(2)))
	})
})
