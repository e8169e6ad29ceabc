package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vocali/transcription-api/internal/identity"
	"github.com/vocali/transcription-api/internal/model"
	"github.com/vocali/transcription-api/internal/repository"
)

// AuthService registers and authenticates users.
type AuthService struct {
	provider identity.Provider
	users    UserStore
	logger   *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(provider identity.Provider, users UserStore, logger *slog.Logger) *AuthService {
	return &AuthService{provider: provider, users: users, logger: loggerOrDefault(logger)}
}

// LoginResult is the outcome of a successful login.
// User is nil when the account has no stored user record.
type LoginResult struct {
	Tokens identity.Tokens
	User   *model.User
}

// Register signs the user up, confirms the account and stores the user record.
func (s *AuthService) Register(ctx context.Context, email, password string) (model.User, error) {
	sub, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return model.User{}, fmt.Errorf("sign up: %w", err)
	}

	if err := s.provider.AdminConfirm(ctx, email); err != nil {
		return model.User{}, fmt.Errorf("confirm account: %w", err)
	}

	user, err := s.users.Create(ctx, email, sub)
	if err != nil {
		return model.User{}, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "sub", sub)
	return user, nil
}

// Login authenticates the user and loads the stored user record.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	tokens, err := s.provider.InitiateAuth(ctx, email, password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("initiate auth: %w", err)
	}

	result := LoginResult{Tokens: tokens}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		result.User = &user
	case errors.Is(err, repository.ErrUserNotFound):
		s.logger.Warn("authenticated user has no stored record")
	default:
		return LoginResult{}, err
	}
	return result, nil
}
