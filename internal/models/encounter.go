package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EncounterStatus represents the document lifecycle state
type EncounterStatus string

const (
	StatusDraft    EncounterStatus = "DRAFT"
	StatusSigned   EncounterStatus = "SIGNED"
	StatusExported EncounterStatus = "EXPORTED"
)

// ParseEncounterStatus maps a wire value onto the closed status set.
// Unknown values are rejected at the boundary.
func ParseEncounterStatus(s string) (EncounterStatus, error) {
	switch EncounterStatus(s) {
	case StatusDraft, StatusSigned, StatusExported:
		return EncounterStatus(s), nil
	}
	return "", fmt.Errorf("unknown encounter status %q", s)
}

// Locked reports whether the encounter content is immutable.
func (s EncounterStatus) Locked() bool {
	return s == StatusSigned || s == StatusExported
}

// VisitType represents the type of clinical visit
type VisitType string

const (
	VisitInitialConsultation VisitType = "Initial Consultation"
	VisitFollowUp            VisitType = "Follow-up"
	VisitAnnualPhysical      VisitType = "Annual Physical"
	VisitAcuteCare           VisitType = "Acute Care"
	VisitProcedure           VisitType = "Procedure"
)

// ParseVisitType maps a wire value onto the closed visit-type set.
func ParseVisitType(s string) (VisitType, error) {
	switch VisitType(s) {
	case VisitInitialConsultation, VisitFollowUp, VisitAnnualPhysical, VisitAcuteCare, VisitProcedure:
		return VisitType(s), nil
	}
	return "", fmt.Errorf("unknown visit type %q", s)
}

// Encounter represents one patient visit's documentation
type Encounter struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`

	PatientName   string    `gorm:"type:varchar(255);not null" json:"patient_name"`
	PatientID     string    `gorm:"type:varchar(100);not null;index" json:"patient_id"`
	VisitType     VisitType `gorm:"type:varchar(100);not null" json:"visit_type"`
	EncounterDate time.Time `gorm:"not null" json:"encounter_date"`

	Transcript string         `gorm:"type:text" json:"transcript,omitempty"`
	Record     datatypes.JSON `gorm:"type:jsonb" json:"record,omitempty"`

	Status   EncounterStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	SignedBy string          `gorm:"type:varchar(255)" json:"signed_by,omitempty"`
	SignedAt *time.Time      `json:"signed_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Encounter) TableName() string {
	return "encounters"
}

// BeforeCreate hook
func (e *Encounter) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
