package store

import (
	"context"
	"strings"

	"peerlearn.app/server/core/db"
	"peerlearn.app/server/internal/model"
)

type otpStore struct {
	conn db.DBTX
}

func newOtpStore(conn db.DBTX) OtpStore {
	return &otpStore{conn: conn}
}

func (s *otpStore) GetByEmail(ctx context.Context, email string) (*model.Otp, error) {
	var o model.Otp
	err := s.conn.QueryRow(ctx, `SELECT email, code, attempts, expires_at, created_at FROM otps WHERE email = $1`,
		strings.ToLower(email)).Scan(&o.Email, &o.Code, &o.Attempts, &o.ExpiresAt, &o.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (s *otpStore) Create(ctx context.Context, otp *model.Otp) error {
	otp.Email = strings.ToLower(otp.Email)
	return s.conn.QueryRow(ctx, `
		INSERT INTO otps (email, code, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at`, otp.Email, otp.Code, otp.ExpiresAt).Scan(&otp.CreatedAt)
}

func (s *otpStore) RecordFailedAttempt(ctx context.Context, email string) (int, error) {
	var attempts int
	err := s.conn.QueryRow(ctx, `
		UPDATE otps SET attempts = attempts + 1
		WHERE email = $1
		RETURNING attempts`, strings.ToLower(email)).Scan(&attempts)
	if err != nil {
		if isNoRows(err) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return attempts, nil
}

// DeleteByEmail is a no-op when no code exists.
func (s *otpStore) DeleteByEmail(ctx context.Context, email string) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM otps WHERE email = $1`, strings.ToLower(email))
	return err
}
