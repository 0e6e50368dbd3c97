package dto

import (
	"time"

	"peerlearn.app/server/internal/model"
)

type CreateWorkspaceRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description *string          `json:"description,omitempty"`
	Visibility  model.Visibility `json:"visibility,omitempty"`
	ColorHex    *string          `json:"colorHex,omitempty"`
}

type UpdateWorkspaceRequest struct {
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	Visibility  *model.Visibility `json:"visibility,omitempty"`
	ColorHex    *string           `json:"colorHex,omitempty"`
}

func (r UpdateWorkspaceRequest) ToPatch() model.WorkspacePatch {
	return model.WorkspacePatch{
		Name:        r.Name,
		Description: r.Description,
		Visibility:  r.Visibility,
		ColorHex:    r.ColorHex,
	}
}

type AddMemberRequest struct {
	UserID int64      `json:"userId,string" binding:"required"`
	Role   model.Role `json:"role,omitempty"`
}

type MemberResponse struct {
	UserID   int64      `json:"userId,string"`
	Role     model.Role `json:"role"`
	JoinedAt time.Time  `json:"joinedAt"`
}

type DocumentBrief struct {
	ID         int64              `json:"id,string"`
	Title      string             `json:"title"`
	Kind       model.DocumentKind `json:"kind"`
	Visibility model.Visibility   `json:"visibility"`
	IsArchived bool               `json:"isArchived"`
}

type WorkspaceResponse struct {
	ID          int64            `json:"id,string"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Visibility  model.Visibility `json:"visibility"`
	ColorHex    *string          `json:"colorHex"`
	CreatorID   *int64           `json:"creatorId,string"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Members     []MemberResponse `json:"members"`
	Documents   []DocumentBrief  `json:"documents"`
}

func ToMemberResponse(m model.Membership) MemberResponse {
	return MemberResponse{UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt}
}

func ToWorkspaceResponse(ws *model.Workspace) WorkspaceResponse {
	resp := WorkspaceResponse{
		ID:          ws.ID,
		Name:        ws.Name,
		Description: ws.Description,
		Visibility:  ws.Visibility,
		ColorHex:    ws.ColorHex,
		CreatorID:   ws.CreatorID,
		CreatedAt:   ws.CreatedAt,
		UpdatedAt:   ws.UpdatedAt,
		Members:     make([]MemberResponse, 0, len(ws.Members)),
		Documents:   make([]DocumentBrief, 0, len(ws.Documents)),
	}
	for _, m := range ws.Members {
		resp.Members = append(resp.Members, ToMemberResponse(m))
	}
	for _, d := range ws.Documents {
		resp.Documents = append(resp.Documents, DocumentBrief{
			ID:         d.ID,
			Title:      d.Title,
			Kind:       d.Kind,
			Visibility: d.Visibility,
			IsArchived: d.IsArchived,
		})
	}
	return resp
}

func ToWorkspaceResponses(workspaces []model.Workspace) []WorkspaceResponse {
	out := make([]WorkspaceResponse, 0, len(workspaces))
	for i := range workspaces {
		out = append(out, ToWorkspaceResponse(&workspaces[i]))
	}
	return out
}
