package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"peerlearn.app/server/common/logger"
	"peerlearn.app/server/internal/model"
	"peerlearn.app/server/internal/queue"
	"peerlearn.app/server/internal/store"
)

const (
	OtpLength   = 6
	OtpValidity = 5 * time.Minute

	// OtpMaxAttempts wrong guesses burn the pending code.
	OtpMaxAttempts = 5
)

// OtpPublisher hands a freshly issued code to the delivery pipeline.
type OtpPublisher interface {
	Enqueue(ctx context.Context, msg queue.OtpMessage) error
}

type OtpService interface {
	// Send issues a new code for email, replacing any pending one.
	Send(ctx context.Context, email string) (time.Time, error)
	Verify(ctx context.Context, email, code string) error
}

type otpService struct {
	userStore store.UserStore
	txRunner  TxRunner
	publisher OtpPublisher
}

func NewOtpService(userStore store.UserStore, txRunner TxRunner, publisher OtpPublisher) OtpService {
	return &otpService{
		userStore: userStore,
		txRunner:  txRunner,
		publisher: publisher,
	}
}

func (s *otpService) Send(ctx context.Context, email string) (time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "peerlearn.service.otp"})

	if _, err := s.lookupUser(ctx, email); err != nil {
		return time.Time{}, err
	}

	code, err := generateOtpCode()
	if err != nil {
		return time.Time{}, fmt.Errorf("generating otp: %w", err)
	}
	otp := &model.Otp{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(OtpValidity).UTC(),
	}

	err = s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if err := sp.Otps().DeleteByEmail(ctx, email); err != nil {
			return fmt.Errorf("deleting previous otp: %w", err)
		}
		if err := sp.Otps().Create(ctx, otp); err != nil {
			return fmt.Errorf("creating otp: %w", err)
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to store otp", "error", err, "email", logger.MaskEmail(email))
		return time.Time{}, err
	}

	// The code is persisted; a delivery failure is logged and the client can ask again.
	if err := s.publisher.Enqueue(ctx, queue.OtpMessage{
		Email:     email,
		Code:      code,
		ExpiresAt: otp.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to enqueue otp delivery", "error", err, "email", logger.MaskEmail(email))
	}

	slog.InfoContext(ctx, "otp issued", "email", logger.MaskEmail(email), "expires_at", otp.ExpiresAt)
	return otp.ExpiresAt, nil
}

func (s *otpService) Verify(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "peerlearn.service.otp"})

	user, err := s.lookupUser(ctx, email)
	if err != nil {
		return err
	}

	// A miss must commit its counter, so it is reported after the transaction.
	mismatch := false
	err = s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		otp, err := sp.Otps().GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrOtpNotFound
			}
			return fmt.Errorf("getting otp: %w", err)
		}

		if otp.IsExpired(time.Now()) {
			return ErrOtpExpired
		}
		if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
			mismatch = true
			attempts, err := sp.Otps().RecordFailedAttempt(ctx, email)
			if err != nil {
				return fmt.Errorf("recording otp attempt: %w", err)
			}
			if attempts >= OtpMaxAttempts {
				if err := sp.Otps().DeleteByEmail(ctx, email); err != nil {
					return fmt.Errorf("deleting otp: %w", err)
				}
				slog.WarnContext(ctx, "otp discarded after repeated misses", "email", logger.MaskEmail(email), "attempts", attempts)
			}
			return nil
		}

		if err := sp.Users().MarkEmailVerified(ctx, user.ID); err != nil {
			return fmt.Errorf("marking email verified: %w", err)
		}
		if err := sp.Otps().DeleteByEmail(ctx, email); err != nil {
			return fmt.Errorf("deleting otp: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if mismatch {
		return ErrOtpInvalid
	}

	slog.InfoContext(ctx, "email verified", "user_id", user.ID)
	return nil
}

func (s *otpService) lookupUser(ctx context.Context, email string) (*model.User, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

func generateOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", OtpLength, n.Int64()), nil
}
