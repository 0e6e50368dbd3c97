package model

import "time"

type DocumentKind string

const (
	DocumentKindDocument DocumentKind = "Document"
	DocumentKindBoard    DocumentKind = "Board"
	DocumentKindNote     DocumentKind = "Note"
)

func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindDocument, DocumentKindBoard, DocumentKindNote:
		return true
	}
	return false
}

type Document struct {
	ID          int64        `json:"id"`
	WorkspaceID int64        `json:"workspace_id"`
	CreatedBy   *int64       `json:"created_by,omitempty"`
	Title       string       `json:"title"`
	Content     *string      `json:"content,omitempty"`
	Kind        DocumentKind `json:"kind"`
	ColorHex    *string      `json:"color_hex,omitempty"`
	Visibility  Visibility   `json:"visibility"`
	IsArchived  bool         `json:"is_archived"`
	YDocID      string       `json:"ydoc_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// DocumentSummary is the slim row loaded alongside a workspace.
type DocumentSummary struct {
	ID         int64        `json:"id"`
	Title      string       `json:"title"`
	Kind       DocumentKind `json:"kind"`
	Visibility Visibility   `json:"visibility"`
	IsArchived bool         `json:"is_archived"`
}

// DocumentPatch is a partial update. A nil field is left untouched.
type DocumentPatch struct {
	Title      *string
	Content    *string
	IsArchived *bool
	ColorHex   *string
	Visibility *Visibility
}

func (p DocumentPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.IsArchived == nil && p.ColorHex == nil && p.Visibility == nil
}

// RequiresOwner reports whether the patch touches fields only owners may change.
func (p DocumentPatch) RequiresOwner() bool {
	return p.IsArchived != nil || p.Visibility != nil
}

func (p DocumentPatch) Apply(d *Document) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Content != nil {
		d.Content = p.Content
	}
	if p.IsArchived != nil {
		d.IsArchived = *p.IsArchived
	}
	if p.ColorHex != nil {
		d.ColorHex = p.ColorHex
	}
	if p.Visibility != nil {
		d.Visibility = *p.Visibility
	}
}
