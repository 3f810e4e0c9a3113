package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RegisterRequest is the payload for account registration
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest is the payload for credential login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly minted session token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// EncounterDetails is the patient/visit portion of a create request
type EncounterDetails struct {
	PatientName string `json:"patientName"`
	PatientID   string `json:"patientId"`
	VisitType   string `json:"visitType"`
	Date        string `json:"date"` // RFC 3339
}

// CreateEncounterRequest is the payload for creating an encounter
type CreateEncounterRequest struct {
	Encounter  EncounterDetails `json:"encounter"`
	Transcript string           `json:"transcript,omitempty"`
	Record     datatypes.JSON   `json:"record,omitempty"`
	Status     string           `json:"status,omitempty"`
}

// CreateEncounterResponse acknowledges a created encounter
type CreateEncounterResponse struct {
	Success     bool      `json:"success"`
	EncounterID uuid.UUID `json:"encounter_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// UpdateEncounterRequest is a partial patch; nil fields are left untouched
type UpdateEncounterRequest struct {
	Record     datatypes.JSON `json:"record,omitempty"`
	Transcript *string        `json:"transcript,omitempty"`
	Status     *string        `json:"status,omitempty"`
}

// SignNoteRequest is the payload for signing a note
type SignNoteRequest struct {
	SignedBy  string `json:"signedBy"`
	Signature string `json:"signature,omitempty"`
}

// SignNoteResponse acknowledges a signed note
type SignNoteResponse struct {
	Success  bool      `json:"success"`
	SignedAt time.Time `json:"signed_at"`
	Status   string    `json:"status"`
}

// GenerateNoteRequest asks for an AI-drafted structured record
type GenerateNoteRequest struct {
	Transcript string `json:"transcript"`
	VisitType  string `json:"visitType"`
}

// GenerateNoteResponse carries the generated record
type GenerateNoteResponse struct {
	Success bool           `json:"success"`
	Data    datatypes.JSON `json:"data"`
}
