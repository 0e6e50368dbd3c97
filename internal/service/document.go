package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"peerlearn.app/server/common/id"
	"peerlearn.app/server/common/logger"
	"peerlearn.app/server/internal/model"
	"peerlearn.app/server/internal/store"
)

type CreateDocumentInput struct {
	WorkspaceID int64
	Title       string
	Content     *string
	Kind        model.DocumentKind
	Visibility  *model.Visibility
	ColorHex    *string
}

type DocumentService interface {
	Create(ctx context.Context, creatorID int64, in CreateDocumentInput) (*model.Document, error)
	Get(ctx context.Context, documentID, userID int64) (*model.Document, error)
	ListByWorkspace(ctx context.Context, workspaceID, userID int64) ([]model.Document, error)
	Update(ctx context.Context, documentID, userID int64, patch model.DocumentPatch) (*model.Document, error)
	// Delete reports false when the document does not exist.
	Delete(ctx context.Context, documentID, userID int64) (bool, error)
}

type documentService struct {
	docStore store.DocumentStore
	wsStore  store.WorkspaceStore
	txRunner TxRunner
}

func NewDocumentService(docStore store.DocumentStore, wsStore store.WorkspaceStore, txRunner TxRunner) DocumentService {
	return &documentService{
		docStore: docStore,
		wsStore:  wsStore,
		txRunner: txRunner,
	}
}

func (s *documentService) Create(ctx context.Context, creatorID int64, in CreateDocumentInput) (*model.Document, error) {
	in.Title = strings.TrimSpace(in.Title)
	if !lengthBetween(in.Title, 1, titleMaxNew) {
		return nil, ErrInvalidDocument.WithMessage(fmt.Sprintf("title must be 1-%d characters", titleMaxNew))
	}
	if in.Kind == "" {
		in.Kind = model.DocumentKindDocument
	}
	if !in.Kind.IsValid() {
		return nil, ErrInvalidDocument.WithMessage("kind must be Document, Board or Note")
	}
	if err := validateVisibility(ErrInvalidDocument, in.Visibility); err != nil {
		return nil, err
	}
	if err := validateColor(ErrInvalidDocument, in.ColorHex); err != nil {
		return nil, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{WorkspaceID: logger.Ptr(in.WorkspaceID)})

	doc := &model.Document{
		ID:          id.New(),
		WorkspaceID: in.WorkspaceID,
		CreatedBy:   &creatorID,
		Title:       in.Title,
		Content:     in.Content,
		Kind:        in.Kind,
		ColorHex:    in.ColorHex,
		YDocID:      uuid.NewString(),
	}

	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if _, err := sp.Users().GetByID(ctx, creatorID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("getting creator: %w", err)
		}
		ws, _, err := lockWorkspace(ctx, sp, in.WorkspaceID, creatorID)
		if err != nil {
			return err
		}

		doc.Visibility = ws.Visibility
		if in.Visibility != nil {
			doc.Visibility = *in.Visibility
		}
		if err := sp.Documents().Create(ctx, doc); err != nil {
			return fmt.Errorf("creating document: %w", err)
		}
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			slog.ErrorContext(ctx, "failed to create document", "error", err, "user_id", creatorID)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "document created", "document_id", doc.ID, "user_id", creatorID)
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, documentID, userID int64) (*model.Document, error) {
	doc, err := s.docStore.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}

	ws, err := s.wsStore.GetByID(ctx, doc.WorkspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("getting workspace: %w", err)
	}

	if _, ok := ws.RoleOf(userID); ok {
		return doc, nil
	}
	if ws.Visibility != model.VisibilityPublic || doc.Visibility != model.VisibilityPublic {
		return nil, ErrWorkspaceAccessDenied
	}
	return doc, nil
}

func (s *documentService) ListByWorkspace(ctx context.Context, workspaceID, userID int64) ([]model.Document, error) {
	ws, err := s.wsStore.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("getting workspace: %w", err)
	}

	_, member := ws.RoleOf(userID)
	if !member && ws.Visibility != model.VisibilityPublic {
		return nil, ErrWorkspaceAccessDenied
	}

	docs, err := s.docStore.ListByWorkspace(ctx, workspaceID, !member)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

func (s *documentService) Update(ctx context.Context, documentID, userID int64, patch model.DocumentPatch) (*model.Document, error) {
	if err := validateDocumentPatch(&patch); err != nil {
		return nil, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{DocumentID: logger.Ptr(documentID)})

	var result *model.Document
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		doc, role, err := lockDocument(ctx, sp, documentID, userID)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			result = doc
			return nil
		}
		if patch.RequiresOwner() && role != model.RoleOwner {
			return ErrInsufficientPermissions
		}

		patch.Apply(doc)
		if err := sp.Documents().Update(ctx, doc); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrDocumentNotFound
			}
			return fmt.Errorf("updating document: %w", err)
		}
		result = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "document updated", "user_id", userID)
	return result, nil
}

func validateDocumentPatch(patch *model.DocumentPatch) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if !lengthBetween(title, 1, titleMaxUpd) {
			return ErrInvalidDocument.WithMessage(fmt.Sprintf("title must be 1-%d characters", titleMaxUpd))
		}
		patch.Title = &title
	}
	if err := validateVisibility(ErrInvalidDocument, patch.Visibility); err != nil {
		return err
	}
	return validateColor(ErrInvalidDocument, patch.ColorHex)
}

func (s *documentService) Delete(ctx context.Context, documentID, userID int64) (bool, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{DocumentID: logger.Ptr(documentID)})

	deleted := false
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		_, role, err := lockDocument(ctx, sp, documentID, userID)
		if err != nil {
			if errors.Is(err, ErrDocumentNotFound) {
				return nil
			}
			return err
		}
		if role != model.RoleOwner {
			return ErrInsufficientPermissions
		}

		deleted, err = sp.Documents().Delete(ctx, documentID)
		if err != nil {
			return fmt.Errorf("deleting document: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if deleted {
		slog.InfoContext(ctx, "document deleted", "user_id", userID)
	}
	return deleted, nil
}

// lockDocument locks the owning workspace, then reads the document again so
// the returned row reflects any write that committed before the lock.
func lockDocument(ctx context.Context, sp StoreProvider, documentID, userID int64) (*model.Document, model.Role, error) {
	doc, err := sp.Documents().GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrDocumentNotFound
		}
		return nil, "", fmt.Errorf("getting document: %w", err)
	}

	_, role, err := lockWorkspace(ctx, sp, doc.WorkspaceID, userID)
	if err != nil {
		if errors.Is(err, ErrWorkspaceNotFound) {
			return nil, "", ErrDocumentNotFound
		}
		return nil, "", err
	}

	doc, err = sp.Documents().GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrDocumentNotFound
		}
		return nil, "", fmt.Errorf("getting document: %w", err)
	}
	return doc, role, nil
}
