package glpi_test

import (
	"context"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatsync.app/bridge/internal/crm/api"
	"chatsync.app/bridge/internal/crm/glpi"
)

var _ = Describe("Setup", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("should name every missing setting", func() {
		result := glpi.Setup(ctx, "", "app", "")
		Expect(result.Success).To(BeFalse())
		Expect(result.Error).To(ContainSubstring("api_url"))
		Expect(result.Error).To(ContainSubstring("user_token"))
		Expect(result.Error).NotTo(ContainSubstring("app_token"))
	})

	It("should reject malformed API URLs", func() {
		result := glpi.Setup(ctx, "not a url", "app", "secret")
		Expect(result.Success).To(BeFalse())
		Expect(result.Error).To(ContainSubstring("invalid API URL"))
	})

	It("should round-trip a session against the instance", func() {
		fake := &fakeGLPI{}
		server := httptest.NewServer(fake.handler())
		DeferCleanup(server.Close)

		result := glpi.Setup(ctx, server.URL, "app", "secret")
		Expect(result.Success).To(BeTrue())
		Expect(result.Message).To(ContainSubstring("successful"))
		Expect(fake.initSessions).To(Equal(1))
		Expect(fake.killSessions).To(Equal(1))
	})

	It("should surface login failures", func() {
		fake := &fakeGLPI{failInit: true}
		server := httptest.NewServer(fake.handler())
		DeferCleanup(server.Close)

		result := glpi.Setup(ctx, server.URL, "app", "secret", api.WithSleep(func(time.Duration) {}))
		Expect(result.Success).To(BeFalse())
		Expect(result.Error).To(ContainSubstring("failed to connect"))
	})
})
