package worker

import (
	"context"

	"peerlearn.app/server/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// Mailer hands a verification code to the outside world.
type Mailer interface {
	SendOtp(ctx context.Context, email, code string, ttlMinutes int) error
}
