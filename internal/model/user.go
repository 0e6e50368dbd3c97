package model

import "time"

type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	EmailVerified  bool      `json:"email_verified"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	ProfilePicture *string   `json:"profile_picture,omitempty"`
	Experience     int       `json:"experience"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserPatch holds the profile fields a user may change about themselves.
// A nil field is left untouched.
type UserPatch struct {
	Username  *string
	FirstName *string
	LastName  *string
}

func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.FirstName == nil && p.LastName == nil
}

// Apply copies the set fields onto u.
func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
}
