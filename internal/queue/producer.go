package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Enqueue(ctx context.Context, task MailTask) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, task MailTask) error {
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: taskValues(task, 1),
	}).Err(); err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued mail", "kind", task.Kind, "to", task.To, "subject", task.Subject)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}

func taskValues(task MailTask, attempt int) map[string]any {
	return map[string]any{
		"kind":      string(task.Kind),
		"to":        task.To,
		"subject":   task.Subject,
		"text_body": task.TextBody,
		"html_body": task.HTMLBody,
		"attempt":   attempt,
	}
}
