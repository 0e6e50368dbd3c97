package store

import (
	"context"
	"errors"

	"peerlearn.app/server/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Unique constraint violations the services care about.
var (
	ErrDuplicateEmail      = errors.New("email already taken")
	ErrDuplicateUsername   = errors.New("username already taken")
	ErrDuplicateMembership = errors.New("membership already exists")
)

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Search(ctx context.Context, query string, limit int) ([]model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	MarkEmailVerified(ctx context.Context, id int64) error
	SetProfilePicture(ctx context.Context, id int64, key *string) error
	// Delete returns the number of rows removed.
	Delete(ctx context.Context, id int64) (int64, error)
}

// WorkspaceStore defines the contract for workspace data access
type WorkspaceStore interface {
	// GetByID loads the workspace with its members and document summaries.
	GetByID(ctx context.Context, id int64) (*model.Workspace, error)
	// GetByIDForUpdate is GetByID with the workspace row locked until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Workspace, error)
	Create(ctx context.Context, ws *model.Workspace) error
	Update(ctx context.Context, ws *model.Workspace) error
	Delete(ctx context.Context, id int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Workspace, error)
	// ListOwnedIDs returns the ids of workspaces userID owns, ascending.
	ListOwnedIDs(ctx context.Context, userID int64) ([]int64, error)
}

// MembershipStore defines the contract for user_workspaces access
type MembershipStore interface {
	Get(ctx context.Context, workspaceID, userID int64) (*model.Membership, error)
	ListByWorkspace(ctx context.Context, workspaceID int64) ([]model.Membership, error)
	Create(ctx context.Context, m *model.Membership) error
	UpdateRole(ctx context.Context, workspaceID, userID int64, role model.Role) error
	Delete(ctx context.Context, workspaceID, userID int64) error
}

// DocumentStore defines the contract for document data access
type DocumentStore interface {
	GetByID(ctx context.Context, id int64) (*model.Document, error)
	Create(ctx context.Context, doc *model.Document) error
	Update(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, id int64) (bool, error)
	ListByWorkspace(ctx context.Context, workspaceID int64, publicOnly bool) ([]model.Document, error)
}

// OtpStore defines the contract for one-time code access
type OtpStore interface {
	GetByEmail(ctx context.Context, email string) (*model.Otp, error)
	Create(ctx context.Context, otp *model.Otp) error
	// RecordFailedAttempt bumps the miss counter and returns its new value.
	RecordFailedAttempt(ctx context.Context, email string) (int, error)
	DeleteByEmail(ctx context.Context, email string) error
}
