package worker

import (
	"context"
	"log/slog"

	"peerlearn.app/server/common/logger"
)

// LogMailer writes codes to the log instead of sending mail.
type LogMailer struct {
	From        string
	IncludeCode bool
}

func (m LogMailer) SendOtp(ctx context.Context, email, code string, ttlMinutes int) error {
	attrs := []any{
		"from", m.From,
		"to", logger.MaskEmail(email),
		"valid_minutes", ttlMinutes,
	}
	if m.IncludeCode {
		attrs = append(attrs, "code", code)
	}
	slog.InfoContext(ctx, "verification code sent", attrs...)
	return nil
}
