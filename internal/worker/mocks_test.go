package worker_test

import (
	"context"
	"sync"

	"peerlearn.app/server/internal/queue"
)

type mockConsumer struct {
	mu       sync.Mutex
	batches  [][]queue.Message
	acked    []string
	requeued []string
	dlq      []string
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	m.mu.Lock()
	if len(m.batches) > 0 {
		batch := m.batches[0]
		m.batches = m.batches[1:]
		m.mu.Unlock()
		return batch, nil
	}
	m.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (m *mockConsumer) Ack(_ context.Context, msg queue.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, msg.ID)
	return nil
}

func (m *mockConsumer) Requeue(_ context.Context, msg queue.Message, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requeued = append(m.requeued, msg.ID)
	return nil
}

func (m *mockConsumer) SendDLQ(_ context.Context, msg queue.Message, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dlq = append(m.dlq, msg.ID)
	return nil
}

func (m *mockConsumer) snapshot() (acked, requeued, dlq []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...), append([]string(nil), m.requeued...), append([]string(nil), m.dlq...)
}

type sentOtp struct {
	email      string
	code       string
	ttlMinutes int
}

type mockMailer struct {
	mu     sync.Mutex
	sendFn func(email string) error
	sent   []sentOtp
}

func (m *mockMailer) SendOtp(_ context.Context, email, code string, ttlMinutes int) error {
	if m.sendFn != nil {
		if err := m.sendFn(email); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentOtp{email: email, code: code, ttlMinutes: ttlMinutes})
	return nil
}

func (m *mockMailer) deliveries() []sentOtp {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentOtp(nil), m.sent...)
}
