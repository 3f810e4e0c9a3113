package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/clinote/clinote-backend/internal/apperr"
	"github.com/clinote/clinote-backend/internal/middleware"
	"github.com/clinote/clinote-backend/internal/models"
	"github.com/clinote/clinote-backend/internal/services"
)

// AuthHandler exposes registration, login and identity lookup
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.New(apperr.Validation, "invalid request body"))
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Login exchanges credentials for a session token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.New(apperr.Validation, "invalid request body"))
		return
	}

	token, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		if apperr.Is(err, apperr.Unauthenticated) {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Me returns the authenticated principal
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		writeError(w, r, apperr.New(apperr.Unauthenticated, "authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, principal)
}
