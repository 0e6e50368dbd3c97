package model

import "time"

type Workspace struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	Visibility  Visibility        `json:"visibility"`
	ColorHex    *string           `json:"color_hex,omitempty"`
	CreatorID   *int64            `json:"creator_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Members     []Membership      `json:"members"`
	Documents   []DocumentSummary `json:"documents"`
}

// RoleOf returns the role userID holds in the workspace, if any.
// Only meaningful when Members has been loaded.
func (w *Workspace) RoleOf(userID int64) (Role, bool) {
	for _, m := range w.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

// OwnerCount counts owner memberships in the loaded Members.
func (w *Workspace) OwnerCount() int {
	n := 0
	for _, m := range w.Members {
		if m.Role == RoleOwner {
			n++
		}
	}
	return n
}

// WorkspacePatch is a partial update. A nil field is left untouched.
type WorkspacePatch struct {
	Name        *string
	Description *string
	Visibility  *Visibility
	ColorHex    *string
}

func (p WorkspacePatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Visibility == nil && p.ColorHex == nil
}

func (p WorkspacePatch) Apply(w *Workspace) {
	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Description != nil {
		w.Description = p.Description
	}
	if p.Visibility != nil {
		w.Visibility = *p.Visibility
	}
	if p.ColorHex != nil {
		w.ColorHex = p.ColorHex
	}
}
