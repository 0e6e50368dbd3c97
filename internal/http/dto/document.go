package dto

import (
	"time"

	"peerlearn.app/server/internal/model"
)

type CreateDocumentRequest struct {
	WorkspaceID int64              `json:"workspaceId,string" binding:"required"`
	Title       string             `json:"title" binding:"required"`
	Content     *string            `json:"content,omitempty"`
	Kind        model.DocumentKind `json:"kind,omitempty"`
	Visibility  *model.Visibility  `json:"visibility,omitempty"`
	ColorHex    *string            `json:"colorHex,omitempty"`
}

type UpdateDocumentRequest struct {
	Title      *string           `json:"title,omitempty"`
	Content    *string           `json:"content,omitempty"`
	IsArchived *bool             `json:"isArchived,omitempty"`
	ColorHex   *string           `json:"colorHex,omitempty"`
	Visibility *model.Visibility `json:"visibility,omitempty"`
}

func (r UpdateDocumentRequest) ToPatch() model.DocumentPatch {
	return model.DocumentPatch{
		Title:      r.Title,
		Content:    r.Content,
		IsArchived: r.IsArchived,
		ColorHex:   r.ColorHex,
		Visibility: r.Visibility,
	}
}

type DocumentResponse struct {
	ID          int64              `json:"id,string"`
	WorkspaceID int64              `json:"workspaceId,string"`
	CreatedBy   *int64             `json:"createdBy,string"`
	Title       string             `json:"title"`
	Content     *string            `json:"content"`
	Kind        model.DocumentKind `json:"kind"`
	ColorHex    *string            `json:"colorHex"`
	Visibility  model.Visibility   `json:"visibility"`
	IsArchived  bool               `json:"isArchived"`
	YDocID      string             `json:"yDocId"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func ToDocumentResponse(d *model.Document) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID,
		WorkspaceID: d.WorkspaceID,
		CreatedBy:   d.CreatedBy,
		Title:       d.Title,
		Content:     d.Content,
		Kind:        d.Kind,
		ColorHex:    d.ColorHex,
		Visibility:  d.Visibility,
		IsArchived:  d.IsArchived,
		YDocID:      d.YDocID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func ToDocumentResponses(docs []model.Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, ToDocumentResponse(&docs[i]))
	}
	return out
}
