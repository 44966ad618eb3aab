package krayin_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatsync.app/bridge/core/config"
	"chatsync.app/bridge/internal/crm/krayin"
	"chatsync.app/bridge/internal/model"
)

var _ = Describe("mappers", func() {
	brand := config.BrandConfig{Name: "Chatsync", FrontendURL: "https://chat.example.com"}

	Describe("MapPerson", func() {
		It("should map identity fields and omit empties", func() {
			payload := krayin.MapPerson(&model.Contact{
				ID:          1,
				Name:        "Ada Lovelace",
				Email:       "ada@example.com",
				PhoneNumber: "+14155552671",
			})

			Expect(payload["name"]).To(Equal("Ada Lovelace"))
			Expect(payload["emails"]).To(Equal([]map[string]any{{"value": "ada@example.com", "label": "work"}}))
			Expect(payload["contact_numbers"]).To(Equal([]map[string]any{{"value": "+14155552671", "label": "work"}}))
			Expect(payload).NotTo(HaveKey("job_title"))
		})

		It("should drop empty contact channels", func() {
			payload := krayin.MapPerson(&model.Contact{ID: 1, Name: "Ada Lovelace"})
			Expect(payload).NotTo(HaveKey("emails"))
			Expect(payload).NotTo(HaveKey("contact_numbers"))
		})
	})

	Describe("MapLead", func() {
		It("should fall back to a generated title for nameless contacts", func() {
			payload := krayin.MapLead(&model.Contact{ID: 9}, "101", nil, brand)
			Expect(payload["title"]).To(Equal("Contact 9"))
		})

		It("should build a description with brand source and leftover attributes", func() {
			payload := krayin.MapLead(&model.Contact{
				ID:          1,
				Name:        "Ada Lovelace",
				Email:       "ada@example.com",
				PhoneNumber: "+14155552671",
				AdditionalAttributes: map[string]any{
					"company":  "Analytical Engines Ltd",
					"industry": "computing",
				},
			}, "101", nil, brand)

			description := payload["description"].(string)
			Expect(description).To(ContainSubstring("Email: ada@example.com"))
			Expect(description).To(ContainSubstring("Phone: +14155552671"))
			Expect(description).To(ContainSubstring("Company: Analytical Engines Ltd"))
			Expect(description).To(ContainSubstring("Source: Chatsync"))
			Expect(description).To(ContainSubstring(`"industry":"computing"`))
		})

		It("should let explicit stage settings override setup defaults", func() {
			payload := krayin.MapLead(&model.Contact{ID: 1, Name: "Ada"}, "101", map[string]any{
				"lead_pipeline_stage_id": float64(9),
				"default_stage_id":       float64(2),
			}, brand)
			Expect(payload["lead_pipeline_stage_id"]).To(Equal(float64(9)))
		})
	})

	Describe("MapConversationActivity", func() {
		conv := &model.Conversation{
			ID:        2,
			AccountID: 4,
			DisplayID: 31,
			InboxName: "Support",
			Status:    model.ConversationStatusResolved,
			Labels:    []string{"billing", "urgent"},
		}

		It("should mark resolved conversations done and deep-link back", func() {
			payload := krayin.MapConversationActivity(conv, nil, "101", brand)

			Expect(payload["type"]).To(Equal("note"))
			Expect(payload["title"]).To(Equal("Conversation #31"))
			Expect(payload["is_done"]).To(Equal(true))
			Expect(payload["person_id"]).To(Equal(int64(101)))

			comment := payload["comment"].(string)
			Expect(comment).To(ContainSubstring("https://chat.example.com/app/accounts/4/conversations/31"))
			Expect(comment).To(ContainSubstring("Labels: billing, urgent"))
			Expect(comment).To(ContainSubstring("No messages yet"))
		})

		It("should include a trailing message summary", func() {
			messages := []model.Message{
				{Content: "<p>Hi there</p>", SenderName: "Ada", CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)},
			}
			payload := krayin.MapConversationActivity(conv, messages, "101", brand)
			Expect(payload["comment"].(string)).To(ContainSubstring("Ada: Hi there"))
		})
	})

	Describe("MapMessageActivity", func() {
		conv := &model.Conversation{ID: 2, DisplayID: 31, InboxName: "Support", Status: model.ConversationStatusOpen}

		It("should use the email type on email channels", func() {
			payload := krayin.MapMessageActivity(&model.Message{Content: "hi"}, &model.Conversation{Channel: "email", DisplayID: 1}, "101", brand)
			Expect(payload["type"]).To(Equal("email"))
		})

		It("should map chat channels by message direction", func() {
			outgoing := krayin.MapMessageActivity(&model.Message{Content: "hi", MessageType: model.MessageTypeOutgoing}, conv, "101", brand)
			Expect(outgoing["type"]).To(Equal("email"))

			incoming := krayin.MapMessageActivity(&model.Message{Content: "hi", MessageType: model.MessageTypeIncoming}, conv, "101", brand)
			Expect(incoming["type"]).To(Equal("note"))
		})

		It("should treat sms and whatsapp as calls", func() {
			payload := krayin.MapMessageActivity(&model.Message{Content: "hi"}, &model.Conversation{Channel: "whatsapp", DisplayID: 1}, "101", brand)
			Expect(payload["type"]).To(Equal("call"))
		})

		It("should list attachments in the comment", func() {
			payload := krayin.MapMessageActivity(&model.Message{
				Content:     "see attached",
				Attachments: []model.Attachment{{FileName: "a.png", URL: "https://cdn/a.png"}},
			}, conv, "101", brand)
			Expect(payload["comment"].(string)).To(ContainSubstring("- https://cdn/a.png"))
		})
	})
})
