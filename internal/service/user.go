package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"peerlearn.app/server/common/logger"
	"peerlearn.app/server/internal/model"
	"peerlearn.app/server/internal/storage"
	"peerlearn.app/server/internal/store"
)

const (
	SearchLimitMin = 1
	SearchLimitMax = 25

	MaxAvatarBytes = 5 << 20
)

var allowedAvatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/gif":  true,
}

// AvatarUpload is an image received from the client.
type AvatarUpload struct {
	Filename string
	Size     int64
	Data     io.Reader
}

type UserService interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	Search(ctx context.Context, query string, limit int) ([]model.User, error)
	Update(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error)
	Delete(ctx context.Context, id int64) error
	UpdateAvatar(ctx context.Context, id int64, upload AvatarUpload) (*model.User, error)
	// OpenAvatar returns the user's avatar image and its content type.
	OpenAvatar(ctx context.Context, id int64) (io.ReadCloser, string, error)
}

type userService struct {
	userStore store.UserStore
	txRunner  TxRunner
	avatars   storage.Storage
}

func NewUserService(userStore store.UserStore, txRunner TxRunner, avatars storage.Storage) UserService {
	return &userService{
		userStore: userStore,
		txRunner:  txRunner,
		avatars:   avatars,
	}
}

func (s *userService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

func (s *userService) Search(ctx context.Context, query string, limit int) ([]model.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.User{}, nil
	}

	limit = max(SearchLimitMin, min(limit, SearchLimitMax))

	users, err := s.userStore.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	return users, nil
}

func (s *userService) Update(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	if err := validateUserPatch(&patch); err != nil {
		return nil, err
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return user, nil
	}

	if patch.Username != nil && *patch.Username != user.Username {
		existing, err := s.userStore.GetByUsername(ctx, *patch.Username)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("checking username: %w", err)
		}
		if existing != nil && existing.ID != id {
			return nil, ErrUsernameExists
		}
	}

	patch.Apply(user)
	if err := s.userStore.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, store.ErrDuplicateUsername):
			return nil, ErrUsernameExists
		}
		slog.ErrorContext(ctx, "failed to update user", "error", err, "user_id", id)
		return nil, fmt.Errorf("updating user: %w", err)
	}

	slog.InfoContext(ctx, "user updated", "user_id", id)
	return user, nil
}

// validateUserPatch trims names in place before checking them.
func validateUserPatch(patch *model.UserPatch) error {
	if patch.Username != nil {
		v := strings.TrimSpace(*patch.Username)
		if err := validateUsername(v); err != nil {
			return err
		}
		patch.Username = &v
	}
	if patch.FirstName != nil {
		v := strings.TrimSpace(*patch.FirstName)
		if err := validatePersonName("first name", v); err != nil {
			return err
		}
		patch.FirstName = &v
	}
	if patch.LastName != nil {
		v := strings.TrimSpace(*patch.LastName)
		if err := validatePersonName("last name", v); err != nil {
			return err
		}
		patch.LastName = &v
	}
	return nil
}

// Delete removes the account. Every workspace the user owns keeps an owner:
// co-owned workspaces are left alone, a sole-owned workspace passes to its
// longest-standing member, and a workspace with no other member is deleted.
func (s *userService) Delete(ctx context.Context, id int64) error {
	var avatar *string
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		user, err := sp.Users().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("getting user: %w", err)
		}

		owned, err := sp.Workspaces().ListOwnedIDs(ctx, id)
		if err != nil {
			return fmt.Errorf("listing owned workspaces: %w", err)
		}
		for _, workspaceID := range owned {
			if err := releaseOwnership(ctx, sp, workspaceID, id); err != nil {
				return err
			}
		}

		n, err := sp.Users().Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		if n == 0 {
			return ErrUserDeleteFailed
		}
		avatar = user.ProfilePicture
		return nil
	})
	if err != nil {
		if AsError(err) == ErrInternal {
			slog.ErrorContext(ctx, "failed to delete user", "error", err, "user_id", id)
		}
		return err
	}

	s.removeAvatar(ctx, avatar)
	slog.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}

// releaseOwnership makes sure workspaceID keeps an owner once userID is gone.
// Workspaces are locked in id order so concurrent account deletions cannot
// both see the other as the remaining owner.
func releaseOwnership(ctx context.Context, sp StoreProvider, workspaceID, userID int64) error {
	ws, err := sp.Workspaces().GetByIDForUpdate(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("locking workspace: %w", err)
	}
	if ws.OwnerCount() > 1 {
		return nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{WorkspaceID: &workspaceID})
	for _, m := range ws.Members {
		if m.UserID == userID {
			continue
		}
		if err := sp.Memberships().UpdateRole(ctx, workspaceID, m.UserID, model.RoleOwner); err != nil {
			return fmt.Errorf("promoting successor: %w", err)
		}
		slog.InfoContext(ctx, "workspace ownership handed over", "from_user_id", userID, "to_user_id", m.UserID)
		return nil
	}

	if _, err := sp.Workspaces().Delete(ctx, workspaceID); err != nil {
		return fmt.Errorf("deleting workspace: %w", err)
	}
	slog.InfoContext(ctx, "workspace deleted with its last member", "user_id", userID)
	return nil
}

func (s *userService) UpdateAvatar(ctx context.Context, id int64, upload AvatarUpload) (*model.User, error) {
	if upload.Size > MaxAvatarBytes {
		return nil, ErrInvalidAvatar.WithMessage("avatar must be at most 5 MiB")
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Trust the bytes, not the client-supplied header.
	br := bufio.NewReaderSize(upload.Data, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("reading avatar: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrInvalidAvatar.WithMessage("avatar is empty")
	}
	contentType := http.DetectContentType(head)
	if !allowedAvatarTypes[contentType] {
		return nil, ErrInvalidAvatar.WithMessage("avatar must be a PNG, JPEG, WebP or GIF image")
	}

	limited := &io.LimitedReader{R: br, N: MaxAvatarBytes + 1}
	filename := "avatar" + storage.ExtensionFor(contentType)
	key, err := s.avatars.Upload(ctx, uuid.New(), filename, contentType, limited)
	if err != nil {
		return nil, fmt.Errorf("storing avatar: %w", err)
	}
	if limited.N <= 0 {
		s.removeAvatar(ctx, &key)
		return nil, ErrInvalidAvatar.WithMessage("avatar must be at most 5 MiB")
	}

	previous := user.ProfilePicture
	if err := s.userStore.SetProfilePicture(ctx, id, &key); err != nil {
		s.removeAvatar(ctx, &key)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("saving avatar reference: %w", err)
	}
	user.ProfilePicture = &key

	s.removeAvatar(ctx, previous)
	slog.InfoContext(ctx, "avatar updated", "user_id", id, "content_type", contentType)
	return user, nil
}

func (s *userService) OpenAvatar(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if user.ProfilePicture == nil {
		return nil, "", ErrUserNotFound.WithMessage("user has no avatar")
	}

	rc, err := s.avatars.Open(ctx, *user.ProfilePicture)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", ErrUserNotFound.WithMessage("user has no avatar")
		}
		return nil, "", fmt.Errorf("opening avatar: %w", err)
	}
	return rc, storage.ContentTypeFor(*user.ProfilePicture), nil
}

// removeAvatar deletes a stored image; failures only leave an orphan object.
func (s *userService) removeAvatar(ctx context.Context, key *string) {
	if key == nil || *key == "" {
		return
	}
	if err := s.avatars.Delete(ctx, *key); err != nil {
		slog.WarnContext(ctx, "failed to delete avatar object", "error", err, "key", *key)
	}
}
