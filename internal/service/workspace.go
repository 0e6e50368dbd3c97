package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"peerlearn.app/server/common/id"
	"peerlearn.app/server/common/logger"
	"peerlearn.app/server/internal/model"
	"peerlearn.app/server/internal/store"
)

type CreateWorkspaceInput struct {
	Name        string
	Description *string
	Visibility  model.Visibility
	ColorHex    *string
}

type WorkspaceService interface {
	Create(ctx context.Context, creatorID int64, in CreateWorkspaceInput) (*model.Workspace, error)
	Get(ctx context.Context, workspaceID, userID int64) (*model.Workspace, error)
	ListForUser(ctx context.Context, userID int64) ([]model.Workspace, error)
	Update(ctx context.Context, workspaceID, userID int64, patch model.WorkspacePatch) (*model.Workspace, error)
	// Delete reports false when the workspace does not exist.
	Delete(ctx context.Context, workspaceID, userID int64) (bool, error)
	AddMember(ctx context.Context, workspaceID, actorID, userID int64, role model.Role) (*model.Membership, error)
	RemoveMember(ctx context.Context, workspaceID, actorID, userID int64) error
}

type workspaceService struct {
	wsStore  store.WorkspaceStore
	txRunner TxRunner
}

func NewWorkspaceService(wsStore store.WorkspaceStore, txRunner TxRunner) WorkspaceService {
	return &workspaceService{
		wsStore:  wsStore,
		txRunner: txRunner,
	}
}

func (s *workspaceService) Create(ctx context.Context, creatorID int64, in CreateWorkspaceInput) (*model.Workspace, error) {
	in.Name = strings.TrimSpace(in.Name)
	if !lengthBetween(in.Name, workspaceMinNew, workspaceMaxNew) {
		return nil, ErrInvalidWorkspace.WithMessage(fmt.Sprintf("name must be %d-%d characters", workspaceMinNew, workspaceMaxNew))
	}
	if in.Visibility == "" {
		in.Visibility = model.VisibilityPrivate
	}
	if err := validateVisibility(ErrInvalidWorkspace, &in.Visibility); err != nil {
		return nil, err
	}
	if err := validateColor(ErrInvalidWorkspace, in.ColorHex); err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	ws := &model.Workspace{
		ID:          id.New(),
		Name:        in.Name,
		Description: in.Description,
		Visibility:  in.Visibility,
		ColorHex:    in.ColorHex,
		CreatorID:   &creatorID,
	}

	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if _, err := sp.Users().GetByID(ctx, creatorID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("getting creator: %w", err)
		}
		if err := sp.Workspaces().Create(ctx, ws); err != nil {
			return fmt.Errorf("creating workspace: %w", err)
		}
		owner := &model.Membership{UserID: creatorID, WorkspaceID: ws.ID, Role: model.RoleOwner}
		if err := sp.Memberships().Create(ctx, owner); err != nil {
			return fmt.Errorf("creating owner membership: %w", err)
		}
		ws.Members = []model.Membership{*owner}
		ws.Documents = []model.DocumentSummary{}
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			slog.ErrorContext(ctx, "failed to create workspace", "error", err, "user_id", creatorID)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "workspace created", "workspace_id", ws.ID, "user_id", creatorID)
	return ws, nil
}

func (s *workspaceService) Get(ctx context.Context, workspaceID, userID int64) (*model.Workspace, error) {
	ws, err := s.wsStore.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("getting workspace: %w", err)
	}

	if _, ok := ws.RoleOf(userID); ok {
		return ws, nil
	}
	if ws.Visibility != model.VisibilityPublic {
		return nil, ErrWorkspaceAccessDenied
	}

	public := make([]model.DocumentSummary, 0, len(ws.Documents))
	for _, d := range ws.Documents {
		if d.Visibility == model.VisibilityPublic {
			public = append(public, d)
		}
	}
	ws.Documents = public
	return ws, nil
}

func (s *workspaceService) ListForUser(ctx context.Context, userID int64) ([]model.Workspace, error) {
	workspaces, err := s.wsStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing workspaces: %w", err)
	}
	return workspaces, nil
}

func (s *workspaceService) Update(ctx context.Context, workspaceID, userID int64, patch model.WorkspacePatch) (*model.Workspace, error) {
	if err := validateWorkspacePatch(&patch); err != nil {
		return nil, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{WorkspaceID: logger.Ptr(workspaceID)})

	var result *model.Workspace
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		ws, role, err := lockWorkspace(ctx, sp, workspaceID, userID)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			result = ws
			return nil
		}
		if patch.Visibility != nil && role != model.RoleOwner {
			return ErrInsufficientPermissions
		}

		patch.Apply(ws)
		if err := sp.Workspaces().Update(ctx, ws); err != nil {
			return fmt.Errorf("updating workspace: %w", err)
		}
		result = ws
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "workspace updated", "user_id", userID)
	return result, nil
}

func validateWorkspacePatch(patch *model.WorkspacePatch) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if !lengthBetween(name, 1, workspaceMaxUpd) {
			return ErrInvalidWorkspace.WithMessage(fmt.Sprintf("name must be 1-%d characters", workspaceMaxUpd))
		}
		patch.Name = &name
	}
	if err := validateDescription(patch.Description); err != nil {
		return err
	}
	if err := validateVisibility(ErrInvalidWorkspace, patch.Visibility); err != nil {
		return err
	}
	return validateColor(ErrInvalidWorkspace, patch.ColorHex)
}

func validateDescription(desc *string) error {
	if desc != nil && !lengthBetween(*desc, 0, descriptionMax) {
		return ErrInvalidWorkspace.WithMessage(fmt.Sprintf("description must be at most %d characters", descriptionMax))
	}
	return nil
}

func (s *workspaceService) Delete(ctx context.Context, workspaceID, userID int64) (bool, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{WorkspaceID: logger.Ptr(workspaceID)})

	deleted := false
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		_, role, err := lockWorkspace(ctx, sp, workspaceID, userID)
		if err != nil {
			if errors.Is(err, ErrWorkspaceNotFound) {
				return nil
			}
			return err
		}
		if role != model.RoleOwner {
			return ErrInsufficientPermissions
		}

		deleted, err = sp.Workspaces().Delete(ctx, workspaceID)
		if err != nil {
			return fmt.Errorf("deleting workspace: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if deleted {
		slog.InfoContext(ctx, "workspace deleted", "user_id", userID)
	}
	return deleted, nil
}

func (s *workspaceService) AddMember(ctx context.Context, workspaceID, actorID, userID int64, role model.Role) (*model.Membership, error) {
	if role == "" {
		role = model.RoleMember
	}
	if !role.IsValid() {
		return nil, ErrValidation.WithMessage("role must be owner or member")
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{WorkspaceID: logger.Ptr(workspaceID)})

	membership := &model.Membership{UserID: userID, WorkspaceID: workspaceID, Role: role}
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if err := requireOwner(ctx, sp, workspaceID, actorID); err != nil {
			return err
		}
		if _, err := sp.Users().GetByID(ctx, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("getting user: %w", err)
		}
		if err := sp.Memberships().Create(ctx, membership); err != nil {
			if errors.Is(err, store.ErrDuplicateMembership) {
				return ErrAlreadyMember
			}
			return fmt.Errorf("creating membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "member added", "user_id", actorID, "member_id", userID, "role", role)
	return membership, nil
}

func (s *workspaceService) RemoveMember(ctx context.Context, workspaceID, actorID, userID int64) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{WorkspaceID: logger.Ptr(workspaceID)})

	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		ws, actorRole, err := lockWorkspace(ctx, sp, workspaceID, actorID)
		if err != nil {
			return err
		}
		if actorID != userID && actorRole != model.RoleOwner {
			return ErrInsufficientPermissions
		}

		targetRole, ok := ws.RoleOf(userID)
		if !ok {
			return ErrMembershipNotFound
		}
		if targetRole == model.RoleOwner && ws.OwnerCount() <= 1 {
			return ErrLastOwner
		}

		if err := sp.Memberships().Delete(ctx, workspaceID, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrMembershipNotFound
			}
			return fmt.Errorf("deleting membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "member removed", "user_id", actorID, "member_id", userID)
	return nil
}

// lockWorkspace loads the workspace row FOR UPDATE and resolves userID's
// role. Non-members get ErrWorkspaceAccessDenied.
func lockWorkspace(ctx context.Context, sp StoreProvider, workspaceID, userID int64) (*model.Workspace, model.Role, error) {
	ws, err := sp.Workspaces().GetByIDForUpdate(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrWorkspaceNotFound
		}
		return nil, "", fmt.Errorf("locking workspace: %w", err)
	}
	role, ok := ws.RoleOf(userID)
	if !ok {
		return nil, "", ErrWorkspaceAccessDenied
	}
	return ws, role, nil
}

func requireOwner(ctx context.Context, sp StoreProvider, workspaceID, userID int64) error {
	_, role, err := lockWorkspace(ctx, sp, workspaceID, userID)
	if err != nil {
		return err
	}
	if role != model.RoleOwner {
		return ErrInsufficientPermissions
	}
	return nil
}

func isDomainError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
