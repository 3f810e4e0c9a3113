package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/clinote/clinote-backend/internal/apperr"
	"github.com/clinote/clinote-backend/internal/models"
	"github.com/clinote/clinote-backend/internal/services"
)

// AIHandler exposes AI note generation
type AIHandler struct {
	notes *services.NoteService
}

// NewAIHandler creates a new AI handler
func NewAIHandler(notes *services.NoteService) *AIHandler {
	return &AIHandler{notes: notes}
}

// GenerateNote drafts a structured record from a transcript
func (h *AIHandler) GenerateNote(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.New(apperr.Validation, "invalid request body"))
		return
	}

	record, err := h.notes.GenerateNote(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.GenerateNoteResponse{
		Success: true,
		Data:    record,
	})
}
