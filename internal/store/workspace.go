package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"peerlearn.app/server/core/db"
	"peerlearn.app/server/internal/model"
)

const workspaceColumns = `w.id, w.name, w.description, w.visibility, w.color_hex, w.creator_id, w.created_at, w.updated_at`

type workspaceStore struct {
	conn db.DBTX
}

func newWorkspaceStore(conn db.DBTX) WorkspaceStore {
	return &workspaceStore{conn: conn}
}

func (s *workspaceStore) GetByID(ctx context.Context, id int64) (*model.Workspace, error) {
	return s.get(ctx, `SELECT `+workspaceColumns+` FROM workspaces w WHERE w.id = $1`, id)
}

func (s *workspaceStore) GetByIDForUpdate(ctx context.Context, id int64) (*model.Workspace, error) {
	return s.get(ctx, `SELECT `+workspaceColumns+` FROM workspaces w WHERE w.id = $1 FOR UPDATE`, id)
}

func (s *workspaceStore) get(ctx context.Context, query string, id int64) (*model.Workspace, error) {
	ws, err := scanWorkspace(s.conn.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ws.Members, err = newMembershipStore(s.conn).ListByWorkspace(ctx, id)
	if err != nil {
		return nil, err
	}
	ws.Documents, err = s.listDocumentSummaries(ctx, id)
	if err != nil {
		return nil, err
	}
	return ws, nil
}

func (s *workspaceStore) listDocumentSummaries(ctx context.Context, workspaceID int64) ([]model.DocumentSummary, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, title, kind, visibility, is_archived
		FROM documents
		WHERE workspace_id = $1
		ORDER BY created_at, id`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []model.DocumentSummary{}
	for rows.Next() {
		var d model.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Title, &d.Kind, &d.Visibility, &d.IsArchived); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *workspaceStore) Create(ctx context.Context, ws *model.Workspace) error {
	row := s.conn.QueryRow(ctx, `
		INSERT INTO workspaces AS w (id, name, description, visibility, color_hex, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+workspaceColumns,
		ws.ID, ws.Name, ws.Description, ws.Visibility, ws.ColorHex, ws.CreatorID)
	created, err := scanWorkspace(row)
	if err != nil {
		return err
	}
	created.Members = ws.Members
	created.Documents = ws.Documents
	*ws = *created
	return nil
}

// Update writes the scalar columns; Members and Documents are left as loaded.
func (s *workspaceStore) Update(ctx context.Context, ws *model.Workspace) error {
	row := s.conn.QueryRow(ctx, `
		UPDATE workspaces AS w
		SET name = $2, description = $3, visibility = $4, color_hex = $5, updated_at = now()
		WHERE w.id = $1
		RETURNING `+workspaceColumns,
		ws.ID, ws.Name, ws.Description, ws.Visibility, ws.ColorHex)
	updated, err := scanWorkspace(row)
	if err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		return err
	}
	updated.Members = ws.Members
	updated.Documents = ws.Documents
	*ws = *updated
	return nil
}

func (s *workspaceStore) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.conn.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListByUser returns the workspaces userID belongs to in join order.
// Members and Documents are not loaded.
func (s *workspaceStore) ListByUser(ctx context.Context, userID int64) ([]model.Workspace, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT `+workspaceColumns+`
		FROM workspaces w
		JOIN user_workspaces uw ON uw.workspace_id = w.id
		WHERE uw.user_id = $1
		ORDER BY uw.joined_at, w.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []model.Workspace{}
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ws)
	}
	return result, rows.Err()
}

func (s *workspaceStore) ListOwnedIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT workspace_id
		FROM user_workspaces
		WHERE user_id = $1 AND role = $2
		ORDER BY workspace_id`, userID, model.RoleOwner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanWorkspace(row pgx.Row) (*model.Workspace, error) {
	var ws model.Workspace
	err := row.Scan(&ws.ID, &ws.Name, &ws.Description, &ws.Visibility, &ws.ColorHex, &ws.CreatorID, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ws.Members = []model.Membership{}
	ws.Documents = []model.DocumentSummary{}
	return &ws, nil
}
