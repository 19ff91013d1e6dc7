package worker_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"commentary.app/comments/internal/queue"
	"commentary.app/comments/internal/worker"
)

type mockConsumer struct {
	mu          sync.Mutex
	batches     [][]queue.Message
	acked       []string
	requeued    []string
	deadLetters []string
	maxAttempts int
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.batches) == 0 {
		// Nothing left; emulate a blocking read that timed out.
		return []queue.Message{}, nil
	}
	batch := m.batches[0]
	m.batches = m.batches[1:]
	return batch, nil
}

func (m *mockConsumer) Ack(ctx context.Context, msg queue.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, msg.ID)
	return nil
}

func (m *mockConsumer) Requeue(ctx context.Context, msg queue.Message, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requeued = append(m.requeued, msg.ID)
	return nil
}

func (m *mockConsumer) SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadLetters = append(m.deadLetters, msg.ID)
	return nil
}

func (m *mockConsumer) MaxAttempts() int {
	return m.maxAttempts
}

func (m *mockConsumer) snapshot() (acked, requeued, deadLetters []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.acked...), append([]string{}, m.requeued...), append([]string{}, m.deadLetters...)
}

type mockProvider struct {
	mu     sync.Mutex
	sent   []string
	sendFn func(ctx context.Context, to, subject, textBody, htmlBody string) error
}

func (m *mockProvider) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendFn != nil {
		if err := m.sendFn(ctx, to, subject, textBody, htmlBody); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, to)
	return nil
}

func (m *mockProvider) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.sent...)
}

var _ = Describe("Worker", func() {
	var (
		consumer *mockConsumer
		provider *mockProvider
	)

	msg := func(id string, attempt int) queue.Message {
		return queue.Message{
			ID: id,
			Task: queue.MailTask{
				Kind:     queue.MailKindFollowup,
				To:       "bob@example.com",
				Subject:  "New comment",
				TextBody: "body",
			},
			Attempt: attempt,
		}
	}

	BeforeEach(func() {
		consumer = &mockConsumer{maxAttempts: 3}
		provider = &mockProvider{}
	})

	runUntil := func(w *worker.Worker, done func() bool) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			defer GinkgoRecover()
			_ = w.Run(ctx)
		}()

		Eventually(done).Should(BeTrue())
		w.Stop()
	}

	It("sends each message and acknowledges it", func() {
		consumer.batches = [][]queue.Message{{msg("1-0", 1), msg("2-0", 1)}}
		w := worker.New(consumer, provider)

		runUntil(w, func() bool {
			acked, _, _ := consumer.snapshot()
			return len(acked) == 2
		})

		Expect(provider.Sent()).To(Equal([]string{"bob@example.com", "bob@example.com"}))
		acked, requeued, deadLetters := consumer.snapshot()
		Expect(acked).To(Equal([]string{"1-0", "2-0"}))
		Expect(requeued).To(BeEmpty())
		Expect(deadLetters).To(BeEmpty())
	})

	It("requeues a failed delivery below the attempt limit", func() {
		consumer.batches = [][]queue.Message{{msg("1-0", 1)}}
		provider.sendFn = func(context.Context, string, string, string, string) error {
			return errors.New("transport down")
		}
		w := worker.New(consumer, provider)

		runUntil(w, func() bool {
			_, requeued, _ := consumer.snapshot()
			return len(requeued) == 1
		})

		acked, requeued, deadLetters := consumer.snapshot()
		Expect(requeued).To(Equal([]string{"1-0"}))
		Expect(acked).To(BeEmpty())
		Expect(deadLetters).To(BeEmpty())
	})

	It("dead-letters a message at the attempt limit", func() {
		consumer.batches = [][]queue.Message{{msg("1-0", 3)}}
		provider.sendFn = func(context.Context, string, string, string, string) error {
			return errors.New("transport down")
		}
		w := worker.New(consumer, provider)

		runUntil(w, func() bool {
			_, _, deadLetters := consumer.snapshot()
			return len(deadLetters) == 1
		})

		_, requeued, deadLetters := consumer.snapshot()
		Expect(deadLetters).To(Equal([]string{"1-0"}))
		Expect(requeued).To(BeEmpty())
	})

	It("keeps draining after a single poisoned message", func() {
		poisoned := msg("1-0", 3)
		healthy := msg("2-0", 1)
		consumer.batches = [][]queue.Message{{poisoned, healthy}}
		calls := 0
		provider.sendFn = func(context.Context, string, string, string, string) error {
			calls++
			if calls == 1 {
				return errors.New("transport down")
			}
			return nil
		}
		w := worker.New(consumer, provider)

		runUntil(w, func() bool {
			acked, _, deadLetters := consumer.snapshot()
			return len(deadLetters) == 1 && len(acked) == 1
		})

		acked, _, deadLetters := consumer.snapshot()
		Expect(deadLetters).To(Equal([]string{"1-0"}))
		Expect(acked).To(Equal([]string{"2-0"}))
	})
})
