package dto

import (
	"strconv"
	"strings"
	"time"

	"peerlearn.app/server/internal/model"
)

// UpdateUserRequest lists every field a user may change on their profile.
// Anything else in the body is rejected by the binder.
type UpdateUserRequest struct {
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

func (r UpdateUserRequest) ToPatch() model.UserPatch {
	return model.UserPatch{
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

type UserResponse struct {
	ID             int64     `json:"id,string"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	EmailVerified  bool      `json:"emailVerified"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	ProfilePicture *string   `json:"profilePicture"`
	Experience     int       `json:"experience"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UserBrief is what search results expose about other users.
type UserBrief struct {
	ID             int64   `json:"id,string"`
	Username       string  `json:"username"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	ProfilePicture *string `json:"profilePicture"`
}

// AvatarLinks turns stored avatar keys into URLs a browser can load.
type AvatarLinks struct {
	// PublicURL is the base of a bucket or CDN serving the keys directly.
	// When empty, avatars are served through the API.
	PublicURL string
}

func (l AvatarLinks) For(u *model.User) *string {
	if u.ProfilePicture == nil || *u.ProfilePicture == "" {
		return nil
	}
	var link string
	if l.PublicURL != "" {
		link = strings.TrimRight(l.PublicURL, "/") + "/" + *u.ProfilePicture
	} else {
		link = "/api/user/" + strconv.FormatInt(u.ID, 10) + "/avatar"
	}
	return &link
}

func (l AvatarLinks) ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		EmailVerified:  u.EmailVerified,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ProfilePicture: l.For(u),
		Experience:     u.Experience,
		CreatedAt:      u.CreatedAt,
	}
}

func (l AvatarLinks) ToUserBriefs(users []model.User) []UserBrief {
	out := make([]UserBrief, 0, len(users))
	for i := range users {
		u := &users[i]
		out = append(out, UserBrief{
			ID:             u.ID,
			Username:       u.Username,
			FirstName:      u.FirstName,
			LastName:       u.LastName,
			ProfilePicture: l.For(u),
		})
	}
	return out
}
