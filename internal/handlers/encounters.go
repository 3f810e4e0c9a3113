package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/clinote/clinote-backend/internal/apperr"
	"github.com/clinote/clinote-backend/internal/middleware"
	"github.com/clinote/clinote-backend/internal/models"
	"github.com/clinote/clinote-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// EncounterHandler exposes the encounter lifecycle over HTTP
type EncounterHandler struct {
	encounters *services.EncounterService
}

// NewEncounterHandler creates a new encounter handler
func NewEncounterHandler(encounters *services.EncounterService) *EncounterHandler {
	return &EncounterHandler{encounters: encounters}
}

// Create creates a new draft encounter
func (h *EncounterHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		writeError(w, r, apperr.New(apperr.Unauthenticated, "authentication required"))
		return
	}

	var req models.CreateEncounterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.New(apperr.Validation, "invalid request body"))
		return
	}

	enc, err := h.encounters.Create(r.Context(), principal, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.CreateEncounterResponse{
		Success:     true,
		EncounterID: enc.ID,
		CreatedAt:   enc.CreatedAt,
	})
}

// List returns the principal's encounters, newest first
func (h *EncounterHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		writeError(w, r, apperr.New(apperr.Unauthenticated, "authentication required"))
		return
	}

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	encounters, err := h.encounters.List(r.Context(), principal, skip, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, encounters)
}

// Get returns one encounter and records the view
func (h *EncounterHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, id, err := h.principalAndID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	enc, err := h.encounters.Get(r.Context(), principal, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, enc)
}

// Update applies a partial patch to a draft encounter
func (h *EncounterHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, id, err := h.principalAndID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req models.UpdateEncounterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.New(apperr.Validation, "invalid request body"))
		return
	}

	enc, err := h.encounters.Update(r.Context(), principal, id, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, enc)
}

// Sign locks the encounter as SIGNED
func (h *EncounterHandler) Sign(w http.ResponseWriter, r *http.Request) {
	principal, id, err := h.principalAndID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req models.SignNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.New(apperr.Validation, "invalid request body"))
		return
	}

	enc, err := h.encounters.Sign(r.Context(), principal, id, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SignNoteResponse{
		Success:  true,
		SignedAt: *enc.SignedAt,
		Status:   string(enc.Status),
	})
}

// Export transitions a signed encounter to EXPORTED
func (h *EncounterHandler) Export(w http.ResponseWriter, r *http.Request) {
	principal, id, err := h.principalAndID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	enc, err := h.encounters.Export(r.Context(), principal, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, enc)
}

// Delete removes a draft encounter
func (h *EncounterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, id, err := h.principalAndID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.encounters.Delete(r.Context(), principal, id); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AuditTrail returns the audit entries for an encounter
func (h *EncounterHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	principal, id, err := h.principalAndID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logs, err := h.encounters.AuditTrail(r.Context(), principal, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}

func (h *EncounterHandler) principalAndID(r *http.Request) (*models.User, uuid.UUID, error) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		return nil, uuid.Nil, apperr.New(apperr.Unauthenticated, "authentication required")
	}

	id, err := uuid.Parse(chi.URLParam(r, "encounterID"))
	if err != nil {
		return nil, uuid.Nil, apperr.New(apperr.Validation, "invalid encounter id")
	}
	return principal, id, nil
}
