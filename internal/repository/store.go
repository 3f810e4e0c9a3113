package repository

import (
	"context"
	"errors"

	"github.com/clinote/clinote-backend/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when no row matches the query
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a uniqueness constraint is violated
var ErrDuplicate = errors.New("duplicate record")

// Store bundles the repositories behind a single transaction boundary.
// Transaction runs fn against a store bound to one transaction; the
// entity mutation and its audit append commit or roll back together.
type Store interface {
	Users() UserRepository
	Encounters() EncounterRepository
	Audit() AuditRepository
	Transaction(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
}

// UserRepository handles user rows
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// EncounterRepository handles encounter rows
type EncounterRepository interface {
	Create(ctx context.Context, enc *models.Encounter) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Encounter, error)
	Update(ctx context.Context, enc *models.Encounter) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]models.Encounter, error)
}

// AuditRepository handles append-only audit entries. There is no
// update or delete on purpose.
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByEncounter(ctx context.Context, encounterID uuid.UUID) ([]models.AuditLog, error)
}
