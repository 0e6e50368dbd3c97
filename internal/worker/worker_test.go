package worker_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"peerlearn.app/server/internal/queue"
	"peerlearn.app/server/internal/worker"
)

func otpMessage(id string, expiresIn time.Duration, attempt int) queue.Message {
	return queue.Message{
		ID:      id,
		Attempt: attempt,
		Otp: queue.OtpMessage{
			Email:     id + "@example.com",
			Code:      "123456",
			ExpiresAt: time.Now().Add(expiresIn),
			Attempt:   attempt,
		},
	}
}

var _ = Describe("Worker", func() {
	var (
		consumer *mockConsumer
		mailer   *mockMailer
		w        *worker.Worker
	)

	BeforeEach(func() {
		consumer = &mockConsumer{}
		mailer = &mockMailer{}
		w = worker.New(consumer, mailer, worker.Config{MaxAttempts: 3})
	})

	Describe("ProcessMessage", func() {
		It("mails a live code with its remaining minutes and acks it", func() {
			Expect(w.ProcessMessage(context.Background(), otpMessage("a", 4*time.Minute+30*time.Second, 1))).To(Succeed())

			Expect(mailer.deliveries()).To(ConsistOf(sentOtp{email: "a@example.com", code: "123456", ttlMinutes: 5}))
			acked, _, _ := consumer.snapshot()
			Expect(acked).To(ConsistOf("a"))
		})

		It("drops an expired code without mailing it", func() {
			Expect(w.ProcessMessage(context.Background(), otpMessage("old", -time.Second, 1))).To(Succeed())

			Expect(mailer.deliveries()).To(BeEmpty())
			acked, _, _ := consumer.snapshot()
			Expect(acked).To(ConsistOf("old"))
		})

		It("leaves a message unacked when mailing fails", func() {
			mailer.sendFn = func(string) error { return errors.New("smtp down") }

			err := w.ProcessMessage(context.Background(), otpMessage("a", time.Minute, 1))
			Expect(err).To(MatchError(ContainSubstring("smtp down")))
			acked, _, _ := consumer.snapshot()
			Expect(acked).To(BeEmpty())
		})
	})

	Describe("Run", func() {
		run := func() (context.CancelFunc, chan error) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				done <- w.Run(ctx)
			}()
			return cancel, done
		}

		It("requeues failures below the attempt limit and dead-letters the rest", func() {
			mailer.sendFn = func(email string) error {
				if email == "ok@example.com" {
					return nil
				}
				return errors.New("rejected")
			}
			consumer.batches = [][]queue.Message{{
				otpMessage("ok", time.Minute, 1),
				otpMessage("retry", time.Minute, 1),
				otpMessage("dead", time.Minute, 3),
			}}

			cancel, done := run()
			Eventually(func() []string {
				_, _, dlq := consumer.snapshot()
				return dlq
			}).Should(ConsistOf("dead"))
			cancel()
			Eventually(done).Should(Receive(MatchError(context.Canceled)))

			acked, requeued, _ := consumer.snapshot()
			Expect(acked).To(ConsistOf("ok"))
			Expect(requeued).To(ConsistOf("retry"))
		})
	})
})

var _ = Describe("LogMailer", func() {
	It("never fails", func() {
		m := worker.LogMailer{From: "no-reply@example.com"}
		Expect(m.SendOtp(context.Background(), "ada@example.com", "123456", 5)).To(Succeed())
	})
})
