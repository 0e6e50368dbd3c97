package model

import "time"

type Otp struct {
	Email     string    `json:"email"`
	Code      string    `json:"-"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (o *Otp) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
