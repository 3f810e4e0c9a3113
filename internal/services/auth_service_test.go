package services

import (
	"context"
	"testing"
	"time"

	"github.com/clinote/clinote-backend/internal/apperr"
	"github.com/clinote/clinote-backend/internal/auth"
	"github.com/clinote/clinote-backend/internal/models"
	"github.com/clinote/clinote-backend/internal/repository"
)

func newAuthService(t *testing.T) (*AuthService, *auth.TokenManager, repository.Store) {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	store := repository.NewMemoryStore()
	return NewAuthService(store, tokens), tokens, store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, tokens, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, &models.RegisterRequest{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "pw12345678",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.PasswordHash == "pw12345678" || user.PasswordHash == "" {
		t.Error("password stored unhashed")
	}
	if !user.IsActive {
		t.Error("new user must be active")
	}
	if user.Role != models.RoleProvider {
		t.Errorf("role = %s, want provider", user.Role)
	}

	token, err := svc.Login(ctx, &models.LoginRequest{Email: "alice@example.com", Password: "pw12345678"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	claims, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if claims.SubjectID != user.ID || claims.Email != user.Email {
		t.Errorf("token identity mismatch: %+v", claims)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"missing email", models.RegisterRequest{Name: "A", Password: "pw12345678"}},
		{"bad email", models.RegisterRequest{Email: "not-an-email", Name: "A", Password: "pw12345678"}},
		{"missing name", models.RegisterRequest{Email: "a@example.com", Password: "pw12345678"}},
		{"short password", models.RegisterRequest{Email: "a@example.com", Name: "A", Password: "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, &tc.req); !apperr.Is(err, apperr.Validation) {
				t.Errorf("got %v, want Validation error", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	req := models.RegisterRequest{Email: "alice@example.com", Name: "Alice", Password: "pw12345678"}
	if _, err := svc.Register(ctx, &req); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := svc.Register(ctx, &req); !apperr.Is(err, apperr.Validation) {
		t.Errorf("duplicate email: got %v, want Validation error", err)
	}
}

func TestLoginFailuresCollapse(t *testing.T) {
	svc, _, store := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &models.RegisterRequest{
		Email: "alice@example.com", Name: "Alice", Password: "pw12345678",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Disabled account with a valid password.
	hash, err := auth.HashPassword("pw12345678")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if err := store.Users().Create(ctx, &models.User{
		Email:        "disabled@example.com",
		Name:         "Disabled",
		PasswordHash: hash,
		IsActive:     false,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	cases := []struct {
		name string
		req  models.LoginRequest
	}{
		{"wrong password", models.LoginRequest{Email: "alice@example.com", Password: "wrong-password"}},
		{"unknown email", models.LoginRequest{Email: "nobody@example.com", Password: "pw12345678"}},
		{"inactive account", models.LoginRequest{Email: "disabled@example.com", Password: "pw12345678"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, &tc.req)
			if !apperr.Is(err, apperr.Unauthenticated) {
				t.Errorf("got %v, want Unauthenticated", err)
			}
			if apperr.PublicMessage(err) != "incorrect email or password" {
				t.Errorf("failure reason leaked: %q", apperr.PublicMessage(err))
			}
		})
	}
}
