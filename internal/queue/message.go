package queue

import (
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// OtpMessage asks the mail worker to deliver a verification code.
type OtpMessage struct {
	Email     string
	Code      string
	ExpiresAt time.Time
	TraceID   string
	Attempt   int
}

type Message struct {
	ID      string
	Otp     OtpMessage
	Attempt int
	TraceID string
	Raw     redis.XMessage
}

func ParseMessage(msg redis.XMessage) (Message, error) {
	email, err := parseString(msg.Values, "email")
	if err != nil {
		return Message{}, err
	}
	code, err := parseString(msg.Values, "code")
	if err != nil {
		return Message{}, err
	}
	expiresUnix, err := parseInt64(msg.Values, "expires_at")
	if err != nil {
		return Message{}, err
	}
	traceID, err := parseOptionalString(msg.Values, "trace_id")
	if err != nil {
		return Message{}, err
	}
	attempt, err := parseOptionalInt(msg.Values, "attempt")
	if err != nil {
		return Message{}, err
	}
	if attempt == 0 {
		attempt = 1
	}

	return Message{
		ID: msg.ID,
		Otp: OtpMessage{
			Email:     email,
			Code:      code,
			ExpiresAt: time.Unix(expiresUnix, 0).UTC(),
			TraceID:   traceID,
			Attempt:   attempt,
		},
		Attempt: attempt,
		TraceID: traceID,
		Raw:     msg,
	}, nil
}

func messageValues(otp OtpMessage, attempt int) map[string]any {
	values := map[string]any{
		"email":      otp.Email,
		"code":       otp.Code,
		"expires_at": otp.ExpiresAt.Unix(),
		"attempt":    attempt,
	}
	if otp.TraceID != "" {
		values["trace_id"] = otp.TraceID
	}
	return values
}

func parseInt64(values map[string]any, key string) (int64, error) {
	raw, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	num, err := strconv.ParseInt(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	s := fmt.Sprint(raw)
	if s == "" {
		return "", fmt.Errorf("empty %s", key)
	}
	return s, nil
}

func parseOptionalInt(values map[string]any, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	num, err := strconv.Atoi(fmt.Sprint(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", nil
	}
	return fmt.Sprint(raw), nil
}
