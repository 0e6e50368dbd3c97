package store

import (
	"context"

	"peerlearn.app/server/core/db"
	"peerlearn.app/server/internal/model"
)

type membershipStore struct {
	conn db.DBTX
}

func newMembershipStore(conn db.DBTX) MembershipStore {
	return &membershipStore{conn: conn}
}

func (s *membershipStore) Get(ctx context.Context, workspaceID, userID int64) (*model.Membership, error) {
	var m model.Membership
	err := s.conn.QueryRow(ctx, `
		SELECT user_id, workspace_id, role, joined_at
		FROM user_workspaces
		WHERE workspace_id = $1 AND user_id = $2`, workspaceID, userID).
		Scan(&m.UserID, &m.WorkspaceID, &m.Role, &m.JoinedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *membershipStore) ListByWorkspace(ctx context.Context, workspaceID int64) ([]model.Membership, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT user_id, workspace_id, role, joined_at
		FROM user_workspaces
		WHERE workspace_id = $1
		ORDER BY joined_at, user_id`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []model.Membership{}
	for rows.Next() {
		var m model.Membership
		if err := rows.Scan(&m.UserID, &m.WorkspaceID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *membershipStore) Create(ctx context.Context, m *model.Membership) error {
	err := s.conn.QueryRow(ctx, `
		INSERT INTO user_workspaces (user_id, workspace_id, role)
		VALUES ($1, $2, $3)
		RETURNING joined_at`, m.UserID, m.WorkspaceID, m.Role).Scan(&m.JoinedAt)
	if err != nil {
		if uniqueConstraint(err) != "" {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

func (s *membershipStore) UpdateRole(ctx context.Context, workspaceID, userID int64, role model.Role) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE user_workspaces SET role = $3
		WHERE workspace_id = $1 AND user_id = $2`, workspaceID, userID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *membershipStore) Delete(ctx context.Context, workspaceID, userID int64) error {
	tag, err := s.conn.Exec(ctx, `DELETE FROM user_workspaces WHERE workspace_id = $1 AND user_id = $2`, workspaceID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
