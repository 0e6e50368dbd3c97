package queue_test

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"peerlearn.app/server/internal/queue"
)

var _ = Describe("ParseMessage", func() {
	It("reads the fields redis hands back as strings", func() {
		msg, err := queue.ParseMessage(redis.XMessage{
			ID: "1700000000000-0",
			Values: map[string]any{
				"email":      "ada@example.com",
				"code":       "012345",
				"expires_at": "1700000300",
				"attempt":    "2",
				"trace_id":   "4bf92f3577b34da6a3ce929d0e0e4736",
			},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.ID).To(Equal("1700000000000-0"))
		Expect(msg.Otp.Email).To(Equal("ada@example.com"))
		Expect(msg.Otp.Code).To(Equal("012345"))
		Expect(msg.Otp.ExpiresAt).To(Equal(time.Unix(1700000300, 0).UTC()))
		Expect(msg.Attempt).To(Equal(2))
		Expect(msg.TraceID).To(Equal("4bf92f3577b34da6a3ce929d0e0e4736"))
	})

	It("treats a missing attempt as the first", func() {
		msg, err := queue.ParseMessage(redis.XMessage{Values: map[string]any{
			"email": "ada@example.com", "code": "123456", "expires_at": "1700000300",
		}})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Attempt).To(Equal(1))
		Expect(msg.TraceID).To(BeEmpty())
	})

	DescribeTable("rejects malformed messages",
		func(values map[string]any, reason string) {
			_, err := queue.ParseMessage(redis.XMessage{Values: values})
			Expect(err).To(MatchError(ContainSubstring(reason)))
		},
		Entry("no email", map[string]any{"code": "123456", "expires_at": "1"}, "missing email"),
		Entry("empty code", map[string]any{"email": "a@b.c", "code": "", "expires_at": "1"}, "empty code"),
		Entry("bad expiry", map[string]any{"email": "a@b.c", "code": "123456", "expires_at": "soon"}, "parsing expires_at"),
		Entry("bad attempt", map[string]any{"email": "a@b.c", "code": "123456", "expires_at": "1", "attempt": "x"}, "parsing attempt"),
	)
})

var _ = Describe("LogProducer", func() {
	var buf *bytes.Buffer
	var log *slog.Logger

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		log = slog.New(slog.NewTextHandler(buf, nil))
	})

	msg := queue.OtpMessage{Email: "ada@example.com", Code: "654321", ExpiresAt: time.Now().Add(time.Minute)}

	It("logs the code when asked to", func() {
		Expect(queue.NewLogProducer(log, true).Enqueue(context.Background(), msg)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("654321"))
		Expect(buf.String()).NotTo(ContainSubstring("ada@example.com"))
	})

	It("keeps the code out of the log otherwise", func() {
		Expect(queue.NewLogProducer(log, false).Enqueue(context.Background(), msg)).To(Succeed())
		Expect(buf.String()).NotTo(ContainSubstring("654321"))
	})
})
