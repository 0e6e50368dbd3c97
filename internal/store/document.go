package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"peerlearn.app/server/core/db"
	"peerlearn.app/server/internal/model"
)

const documentColumns = `id, workspace_id, created_by, title, content, kind, color_hex, visibility,
	is_archived, ydoc_id, created_at, updated_at`

type documentStore struct {
	conn db.DBTX
}

func newDocumentStore(conn db.DBTX) DocumentStore {
	return &documentStore{conn: conn}
}

func (s *documentStore) GetByID(ctx context.Context, id int64) (*model.Document, error) {
	doc, err := scanDocument(s.conn.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentStore) Create(ctx context.Context, doc *model.Document) error {
	row := s.conn.QueryRow(ctx, `
		INSERT INTO documents (id, workspace_id, created_by, title, content, kind, color_hex, visibility, is_archived, ydoc_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+documentColumns,
		doc.ID, doc.WorkspaceID, doc.CreatedBy, doc.Title, doc.Content, doc.Kind, doc.ColorHex,
		doc.Visibility, doc.IsArchived, doc.YDocID)
	created, err := scanDocument(row)
	if err != nil {
		return err
	}
	*doc = *created
	return nil
}

func (s *documentStore) Update(ctx context.Context, doc *model.Document) error {
	row := s.conn.QueryRow(ctx, `
		UPDATE documents
		SET title = $2, content = $3, color_hex = $4, visibility = $5, is_archived = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+documentColumns,
		doc.ID, doc.Title, doc.Content, doc.ColorHex, doc.Visibility, doc.IsArchived)
	updated, err := scanDocument(row)
	if err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		return err
	}
	*doc = *updated
	return nil
}

func (s *documentStore) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.conn.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *documentStore) ListByWorkspace(ctx context.Context, workspaceID int64, publicOnly bool) ([]model.Document, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE workspace_id = $1 AND (NOT $2 OR visibility = 'Public')
		ORDER BY created_at, id`, workspaceID, publicOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func scanDocument(row pgx.Row) (*model.Document, error) {
	var d model.Document
	err := row.Scan(
		&d.ID, &d.WorkspaceID, &d.CreatedBy, &d.Title, &d.Content, &d.Kind, &d.ColorHex, &d.Visibility,
		&d.IsArchived, &d.YDocID, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
