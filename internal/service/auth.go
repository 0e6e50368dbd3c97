package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"peerlearn.app/server/common/id"
	"peerlearn.app/server/common/logger"
	"peerlearn.app/server/internal/model"
	"peerlearn.app/server/internal/store"
	"peerlearn.app/server/internal/token"
)

type RegisterInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

type AuthService interface {
	// Register creates an unverified account and returns its normalized email.
	Register(ctx context.Context, in RegisterInput) (string, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	// Authenticate resolves a session token to a user id.
	Authenticate(ctx context.Context, tokenString string) (int64, error)
}

type authService struct {
	userStore store.UserStore
	tokens    token.Manager
}

func NewAuthService(userStore store.UserStore, tokens token.Manager) AuthService {
	return &authService{
		userStore: userStore,
		tokens:    tokens,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (string, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return "", err
	}
	username := strings.TrimSpace(in.Username)
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)

	if err := validateUsername(username); err != nil {
		return "", err
	}
	if err := validatePersonName("first name", firstName); err != nil {
		return "", err
	}
	if err := validatePersonName("last name", lastName); err != nil {
		return "", err
	}
	if err := validatePassword(in.Password); err != nil {
		return "", err
	}

	if _, err := s.userStore.GetByEmail(ctx, email); err == nil {
		return "", ErrEmailExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("checking email: %w", err)
	}
	if _, err := s.userStore.GetByUsername(ctx, username); err == nil {
		return "", ErrUsernameExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("checking username: %w", err)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return "", err
	}

	user := &model.User{
		ID:           id.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
	}
	if err := s.userStore.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			return "", ErrEmailExists
		case errors.Is(err, store.ErrDuplicateUsername):
			return "", ErrUsernameExists
		}
		slog.ErrorContext(ctx, "failed to create user",
			"error", err,
			"email", logger.MaskEmail(email),
		)
		return "", fmt.Errorf("creating user: %w", err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user.Email, nil
}

// dummyHash keeps unknown-email logins as slow as wrong-password ones.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3yuR1YAQdRJzKk5u4hR6a3m"

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_, _ = checkPassword(dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	ok, err := checkPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.InfoContext(ctx, "login rejected", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	signed, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	slog.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &Session{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (int64, error) {
	if tokenString == "" {
		return 0, ErrUnauthenticated
	}
	userID, err := s.tokens.Parse(tokenString)
	if err != nil {
		slog.DebugContext(ctx, "rejected session token", "error", err)
		return 0, ErrUnauthenticated
	}

	// A token outlives a deleted account.
	if _, err := s.userStore.GetByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.DebugContext(ctx, "rejected session token for deleted user", "user_id", userID)
			return 0, ErrUnauthenticated
		}
		return 0, fmt.Errorf("getting session user: %w", err)
	}
	return userID, nil
}
