package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"peerlearn.app/server/common/logger"
)

type Producer interface {
	Enqueue(ctx context.Context, msg OtpMessage) error
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

func (p *redisProducer) Enqueue(ctx context.Context, msg OtpMessage) error {
	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}
	if msg.TraceID == "" {
		msg.TraceID = logger.TraceIDFromContext(ctx)
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: messageValues(msg, attempt),
	}).Err(); err != nil {
		return fmt.Errorf("enqueue otp delivery: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued otp delivery", "email", logger.MaskEmail(msg.Email), "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}

// logProducer stands in for Redis when no REDIS_URL is configured.
// Codes are only written to the log outside production.
type logProducer struct {
	logger      *slog.Logger
	includeCode bool
}

func NewLogProducer(logger *slog.Logger, includeCode bool) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &logProducer{logger: logger, includeCode: includeCode}
}

func (p *logProducer) Enqueue(ctx context.Context, msg OtpMessage) error {
	attrs := []any{"email", logger.MaskEmail(msg.Email), "expires_at", msg.ExpiresAt}
	if p.includeCode {
		attrs = append(attrs, "code", msg.Code)
	}
	p.logger.InfoContext(ctx, "otp delivery not queued, no redis configured", attrs...)
	return nil
}

func (p *logProducer) Close() error {
	return nil
}
