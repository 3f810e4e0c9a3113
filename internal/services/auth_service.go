package services

import (
	"context"
	"errors"
	"strings"

	"github.com/clinote/clinote-backend/internal/apperr"
	"github.com/clinote/clinote-backend/internal/auth"
	"github.com/clinote/clinote-backend/internal/models"
	"github.com/clinote/clinote-backend/internal/repository"
	"github.com/rs/zerolog/log"
)

const minPasswordLength = 8

// AuthService owns registration and credential login
type AuthService struct {
	store  repository.Store
	tokens *auth.TokenManager
}

// NewAuthService creates a new auth service
func NewAuthService(store repository.Store, tokens *auth.TokenManager) *AuthService {
	return &AuthService{store: store, tokens: tokens}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.New(apperr.Validation, "a valid email address is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.New(apperr.Validation, "name is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperr.New(apperr.Validation, "password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to create user", err)
	}

	user := &models.User{
		Email:        email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         models.RoleProvider,
		IsActive:     true,
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.New(apperr.Validation, "email already registered")
		}
		return nil, apperr.Wrap(apperr.Dependency, "failed to create user", err)
	}

	log.Info().Str("user_id", user.ID.String()).Msg("User registered")
	return user, nil
}

// Login verifies credentials and mints a session token. Unknown
// email, wrong password and disabled accounts all produce the same
// authentication failure.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (string, error) {
	user, err := s.store.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.New(apperr.Unauthenticated, "incorrect email or password")
		}
		return "", apperr.Wrap(apperr.Dependency, "login failed", err)
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		return "", apperr.New(apperr.Unauthenticated, "incorrect email or password")
	}
	if !user.IsActive {
		return "", apperr.New(apperr.Unauthenticated, "incorrect email or password")
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "failed to issue token", err)
	}
	return token, nil
}
