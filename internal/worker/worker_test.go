package worker_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatsync.app/bridge/internal/crm"
	"chatsync.app/bridge/internal/queue"
	"chatsync.app/bridge/internal/worker"
)

type mockConsumer struct {
	readFn   func(ctx context.Context) ([]queue.Message, error)
	acked    []string
	requeued []string
	dlq      []string
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	if m.readFn != nil {
		return m.readFn(ctx)
	}
	return nil, nil
}

func (m *mockConsumer) Ack(ctx context.Context, msg queue.Message) error {
	m.acked = append(m.acked, msg.ID)
	return nil
}

func (m *mockConsumer) Requeue(ctx context.Context, msg queue.Message, errMsg string) error {
	m.requeued = append(m.requeued, msg.ID)
	return nil
}

func (m *mockConsumer) SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error {
	m.dlq = append(m.dlq, msg.ID)
	return nil
}

type mockProcessor struct {
	processFn func(ctx context.Context, event crm.Event) error
	events    []crm.Event
}

func (m *mockProcessor) Process(ctx context.Context, event crm.Event) error {
	m.events = append(m.events, event)
	if m.processFn != nil {
		return m.processFn(ctx, event)
	}
	return nil
}

var _ = Describe("Worker", func() {
	var (
		consumer  *mockConsumer
		processor *mockProcessor
		w         *worker.Worker
		ctx       context.Context
		cancel    context.CancelFunc
	)

	message := func(id string, attempt int) queue.Message {
		return queue.Message{
			ID:      id,
			Event:   crm.Event{HookID: 7, Type: crm.EventContactCreated, ContactID: 1},
			Attempt: attempt,
		}
	}

	// runOnce feeds one batch and then cancels the loop.
	runOnce := func(messages ...queue.Message) {
		delivered := false
		consumer.readFn = func(ctx context.Context) ([]queue.Message, error) {
			if delivered {
				cancel()
				return nil, nil
			}
			delivered = true
			return messages, nil
		}
		err := w.Run(ctx)
		Expect(err).To(MatchError(context.Canceled))
	}

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)
		consumer = &mockConsumer{}
		processor = &mockProcessor{}
		w = worker.New(consumer, processor, worker.Config{MaxAttempts: 3})
	})

	It("should process and ack successful messages", func() {
		runOnce(message("1-0", 1), message("1-1", 1))

		Expect(processor.events).To(HaveLen(2))
		Expect(consumer.acked).To(Equal([]string{"1-0", "1-1"}))
		Expect(consumer.requeued).To(BeEmpty())
	})

	It("should requeue failures below the attempt ceiling", func() {
		processor.processFn = func(ctx context.Context, event crm.Event) error {
			return errors.New("lock busy")
		}

		runOnce(message("1-0", 1))

		Expect(consumer.requeued).To(Equal([]string{"1-0"}))
		Expect(consumer.acked).To(BeEmpty())
		Expect(consumer.dlq).To(BeEmpty())
	})

	It("should dead-letter failures at the attempt ceiling", func() {
		processor.processFn = func(ctx context.Context, event crm.Event) error {
			return errors.New("lock busy")
		}

		runOnce(message("1-0", 3))

		Expect(consumer.dlq).To(Equal([]string{"1-0"}))
		Expect(consumer.requeued).To(BeEmpty())
	})

	It("should treat a panicking processor as a failed message", func() {
		processor.processFn = func(ctx context.Context, event crm.Event) error {
			panic("boom")
		}

		runOnce(message("1-0", 1))

		Expect(consumer.requeued).To(Equal([]string{"1-0"}))
	})

	It("should keep processing the batch after one failure", func() {
		processor.processFn = func(ctx context.Context, event crm.Event) error {
			if len(processor.events) == 1 {
				return errors.New("first one fails")
			}
			return nil
		}

		runOnce(message("1-0", 1), message("1-1", 1))

		Expect(consumer.requeued).To(Equal([]string{"1-0"}))
		Expect(consumer.acked).To(Equal([]string{"1-1"}))
	})
})
