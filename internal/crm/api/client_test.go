package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatsync.app/bridge/internal/crm/api"
)

var _ = Describe("Client", func() {
	var (
		ctx    context.Context
		calls  atomic.Int64
		waits  []time.Duration
		server *httptest.Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		calls.Store(0)
		waits = nil
	})

	AfterEach(func() {
		if server != nil {
			server.Close()
			server = nil
		}
	})

	newClient := func(url string) *api.Client {
		return api.NewClient(url, api.BearerHeaders("secret"),
			api.WithSleep(func(d time.Duration) { waits = append(waits, d) }))
	}

	Describe("success path", func() {
		It("should return the parsed body and send auth headers", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				Expect(r.Header.Get("Authorization")).To(Equal("Bearer secret"))
				Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
				w.Write([]byte(`{"id": 42}`))
			}))

			body, err := newClient(server.URL).Get(ctx, "persons", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(Equal(`{"id": 42}`))
			Expect(calls.Load()).To(Equal(int64(1)))
		})

		It("should tolerate an empty response body", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))

			body, err := newClient(server.URL).Delete(ctx, "persons/1")
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(BeNil())
		})
	})

	Describe("retry ceiling", func() {
		It("should call an always-503 endpoint exactly MaxAttempts times then fail", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusServiceUnavailable)
			}))

			_, err := newClient(server.URL).Get(ctx, "persons", nil)

			var apiErr *api.Error
			Expect(err).To(BeAssignableToTypeOf(apiErr))
			apiErr = err.(*api.Error)
			Expect(apiErr.StatusCode).To(Equal(503))
			Expect(apiErr.Retriable).To(BeTrue())
			Expect(calls.Load()).To(Equal(int64(api.MaxAttempts)))
		})

		It("should recover when a later attempt succeeds", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) < 3 {
					w.WriteHeader(http.StatusBadGateway)
					return
				}
				w.Write([]byte(`{"ok": true}`))
			}))

			body, err := newClient(server.URL).Get(ctx, "persons", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(Equal(`{"ok": true}`))
			Expect(calls.Load()).To(Equal(int64(3)))
		})
	})

	Describe("backoff curves", func() {
		It("should wait longer for rate limits than for outages at the same attempt", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			}))
			_, err := newClient(server.URL).Get(ctx, "persons", nil)
			Expect(err).To(HaveOccurred())
			rateLimitWaits := append([]time.Duration(nil), waits...)

			waits = nil
			server.Close()
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			_, err = newClient(server.URL).Get(ctx, "persons", nil)
			Expect(err).To(HaveOccurred())

			Expect(rateLimitWaits).To(HaveLen(len(waits)))
			for i := range waits {
				Expect(rateLimitWaits[i]).To(BeNumerically(">", waits[i]))
			}
		})
	})

	Describe("classification", func() {
		DescribeTable("non-retriable statuses propagate immediately",
			func(status int) {
				server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					calls.Add(1)
					w.WriteHeader(status)
				}))

				_, err := newClient(server.URL).Get(ctx, "persons", nil)
				Expect(api.IsStatus(err, status)).To(BeTrue())
				Expect(calls.Load()).To(Equal(int64(1)))
			},
			Entry("unauthorized", 401),
			Entry("forbidden", 403),
			Entry("not found", 404),
			Entry("validation", 422),
			Entry("server error", 500),
		)

		It("should extract the message from a structured 422 body", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"message": "email has already been taken"}`))
			}))

			_, err := newClient(server.URL).Post(ctx, "persons", map[string]string{"email": "a@b.c"})
			Expect(err.Error()).To(ContainSubstring("email has already been taken"))
		})

		It("should carry the diagnostic from an array-shaped error body", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`["ERROR_WRONG_APP_TOKEN_PARAMETER", "the App-Token parameter is invalid"]`))
			}))

			_, err := newClient(server.URL).Get(ctx, "initSession", nil)
			Expect(err.Error()).To(ContainSubstring("unauthorized"))
			Expect(err.Error()).To(ContainSubstring("ERROR_WRONG_APP_TOKEN_PARAMETER"))
			Expect(err.Error()).To(ContainSubstring("the App-Token parameter is invalid"))
		})

		It("should carry the diagnostic from an object-shaped error body", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"message": "no such ticket"}`))
			}))

			_, err := newClient(server.URL).Get(ctx, "Ticket/99", nil)
			Expect(err.Error()).To(ContainSubstring("resource not found: no such ticket"))
		})

		It("should return a parse error for non-JSON success bodies", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Write([]byte(`<html>gateway page</html>`))
			}))

			_, err := newClient(server.URL).Get(ctx, "persons", nil)
			var apiErr *api.Error
			Expect(err).To(BeAssignableToTypeOf(apiErr))
			apiErr = err.(*api.Error)
			Expect(apiErr.Retriable).To(BeFalse())
			Expect(apiErr.Message).To(ContainSubstring("invalid JSON"))
			Expect(calls.Load()).To(Equal(int64(1)))
		})
	})

	Describe("IsNotFound", func() {
		It("should match only 404 errors", func() {
			Expect(api.IsNotFound(&api.Error{StatusCode: 404})).To(BeTrue())
			Expect(api.IsNotFound(&api.Error{StatusCode: 500})).To(BeFalse())
			Expect(api.IsNotFound(context.Canceled)).To(BeFalse())
		})
	})
})
