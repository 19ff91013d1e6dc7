package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"commentary.app/comments/common/logger"
	"commentary.app/comments/internal/mail"
	"commentary.app/comments/internal/queue"
)

// Consumer is the slice of the Redis stream consumer the worker needs.
// Satisfied by *queue.RedisConsumer.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
	MaxAttempts() int
}

// Worker drains the mail stream and hands each rendered email to the
// provider. Delivery is fire-and-forget from the comment flow's point of
// view: a failed send is retried, then dead-lettered, and never surfaces to
// the poster.
type Worker struct {
	consumer Consumer
	provider mail.Provider

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, provider mail.Provider) *Worker {
	return &Worker{
		consumer:  consumer,
		provider:  provider,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "mail worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "mail worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "mail delivery failed",
				"error", err,
				"message_id", msg.ID,
				"kind", msg.Task.Kind,
				"recipient", msg.Task.To)
			w.handleFailedMessage(ctx, msg, err)
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in mail delivery",
				"panic", r,
				"message_id", msg.ID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.deliver(ctx, msg)
}

func (w *Worker) deliver(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID: logger.Ptr(msg.ID),
		Recipient: logger.Ptr(msg.Task.To),
		Component: "commentary.worker",
	})

	slog.InfoContext(ctx, "delivering mail",
		"kind", msg.Task.Kind,
		"attempt", msg.Attempt)

	if err := w.provider.Send(ctx, msg.Task.To, msg.Task.Subject, msg.Task.TextBody, msg.Task.HTMLBody); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// The message will be redelivered and sent twice; a duplicate email
		// is preferable to a lost one.
		slog.WarnContext(ctx, "failed to ACK message", "error", err)
	}

	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.consumer.MaxAttempts() {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"recipient", msg.Task.To,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
