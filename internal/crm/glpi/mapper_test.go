package glpi_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatsync.app/bridge/internal/crm/glpi"
	"chatsync.app/bridge/internal/model"
)

var _ = Describe("mappers", func() {
	Describe("MapStatus", func() {
		DescribeTable("maps conversation statuses to ticket status codes",
			func(status model.ConversationStatus, expected int) {
				Expect(glpi.MapStatus(status)).To(Equal(expected))
			},
			Entry("open becomes processing", model.ConversationStatusOpen, 2),
			Entry("pending stays pending", model.ConversationStatusPending, 4),
			Entry("resolved becomes solved", model.ConversationStatusResolved, 5),
			Entry("snoozed becomes processing", model.ConversationStatusSnoozed, 2),
			Entry("unknown becomes new", model.ConversationStatus("archived"), 1),
		)
	})

	Describe("MapPriority", func() {
		DescribeTable("maps conversation priorities to ticket priority codes",
			func(priority model.ConversationPriority, expected int) {
				Expect(glpi.MapPriority(priority)).To(Equal(expected))
			},
			Entry("low", model.PriorityLow, 2),
			Entry("medium", model.PriorityMedium, 3),
			Entry("high", model.PriorityHigh, 4),
			Entry("urgent", model.PriorityUrgent, 5),
			Entry("unset defaults to medium", model.ConversationPriority(""), 3),
		)
	})

	Describe("MapUser", func() {
		It("should use the email as login and split the name", func() {
			payload := glpi.MapUser(&model.Contact{
				ID:          1,
				Name:        "Ada Lovelace",
				Email:       "ada@example.com",
				PhoneNumber: "+14155552671",
			}, 0)

			Expect(payload["name"]).To(Equal("ada@example.com"))
			Expect(payload["firstname"]).To(Equal("Ada"))
			Expect(payload["realname"]).To(Equal("Lovelace"))
			Expect(payload["_useremails"]).To(Equal([]string{"ada@example.com"}))
			Expect(payload["entities_id"]).To(Equal(0))
		})

		It("should fall back to the phone number as login", func() {
			payload := glpi.MapUser(&model.Contact{ID: 1, Name: "Ada", PhoneNumber: "+14155552671"}, 0)
			Expect(payload["name"]).To(Equal("+14155552671"))
			Expect(payload).NotTo(HaveKey("_useremails"))
		})
	})

	Describe("MapContact", func() {
		It("should keep the full name and carry the entity", func() {
			payload := glpi.MapContact(&model.Contact{
				ID:    1,
				Name:  "Ada Lovelace",
				Email: "ada@example.com",
			}, 3)

			Expect(payload["name"]).To(Equal("Ada Lovelace"))
			Expect(payload["firstname"]).To(Equal("Ada"))
			Expect(payload["entities_id"]).To(Equal(3))
			Expect(payload).NotTo(HaveKey("phone"))
		})
	})

	Describe("MapTicket", func() {
		conv := &model.Conversation{
			ID:        2,
			DisplayID: 31,
			Status:    model.ConversationStatusOpen,
			Priority:  model.PriorityHigh,
		}

		It("should build the ticket from the opening message", func() {
			first := &model.Message{
				Content:    "<p>My printer is on fire</p>",
				SenderName: "Ada",
				CreatedAt:  time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC),
			}
			payload := glpi.MapTicket(conv, first, "Ada", "42", 0, map[string]any{})

			Expect(payload["name"]).To(Equal("Conversation #31"))
			Expect(payload["content"]).To(Equal("[2026-08-01 10:30:00] Ada:\nMy printer is on fire"))
			Expect(payload["status"]).To(Equal(2))
			Expect(payload["priority"]).To(Equal(4))
			Expect(payload["_users_id_requester"]).To(Equal(int64(42)))
			Expect(payload["type"]).To(Equal(1))
			Expect(payload).NotTo(HaveKey("itilcategories_id"))
		})

		It("should fall back to a placeholder body without messages", func() {
			payload := glpi.MapTicket(conv, nil, "Ada", "42", 0, map[string]any{})
			Expect(payload["content"]).To(Equal("New conversation from Ada"))
		})

		It("should honor ticket type and category settings", func() {
			payload := glpi.MapTicket(conv, nil, "Ada", "42", 0, map[string]any{
				"ticket_type": float64(2),
				"category_id": float64(10),
			})
			Expect(payload["type"]).To(Equal(float64(2)))
			Expect(payload["itilcategories_id"]).To(Equal(float64(10)))
		})
	})

	Describe("MapFollowup", func() {
		It("should render the message with sender, timestamp, and attachments", func() {
			msg := &model.Message{
				ID:         5,
				Content:    "see attached",
				SenderName: "Ada",
				CreatedAt:  time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC),
				Attachments: []model.Attachment{
					{FileName: "a.png", URL: "https://cdn/a.png"},
				},
			}
			payload := glpi.MapFollowup(msg, "77", map[string]any{})

			Expect(payload["itemtype"]).To(Equal("Ticket"))
			Expect(payload["items_id"]).To(Equal(int64(77)))
			Expect(payload["is_private"]).To(Equal(0))
			Expect(payload["users_id"]).To(Equal(0))
			content := payload["content"].(string)
			Expect(content).To(HavePrefix("[2026-08-01 10:30:00] Ada:\nsee attached"))
			Expect(content).To(ContainSubstring("Attachments:\n- https://cdn/a.png"))
		})

		It("should mark private messages as private followups", func() {
			msg := &model.Message{ID: 5, Content: "internal note", Private: true}
			payload := glpi.MapFollowup(msg, "77", map[string]any{"default_user_id": float64(2)})
			Expect(payload["is_private"]).To(Equal(1))
			Expect(payload["users_id"]).To(Equal(float64(2)))
		})
	})
})
