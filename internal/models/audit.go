package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditAction identifies the observable action an audit entry records
type AuditAction string

const (
	ActionCreated  AuditAction = "created"
	ActionViewed   AuditAction = "viewed"
	ActionUpdated  AuditAction = "updated"
	ActionSigned   AuditAction = "signed"
	ActionDeleted  AuditAction = "deleted"
	ActionExported AuditAction = "exported"
)

// AuditLog is an append-only compliance record. Entries are never
// updated or deleted; EncounterID is a plain column rather than a
// constrained foreign key so entries survive encounter deletion.
type AuditLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EncounterID *uuid.UUID     `gorm:"type:uuid;index" json:"encounter_id,omitempty"`
	ActorID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"actor_id"`
	Action      AuditAction    `gorm:"type:varchar(100);not null;index" json:"action"`
	Changes     datatypes.JSON `gorm:"type:jsonb" json:"changes,omitempty"`
	OccurredAt  time.Time      `gorm:"index" json:"occurred_at"`
}

// TableName overrides the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate hook
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now().UTC()
	}
	return nil
}
