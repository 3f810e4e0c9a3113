package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinote/clinote-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore implements Store on top of a gorm database handle
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store bound to db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository           { return &gormUserRepository{db: s.db} }
func (s *GormStore) Encounters() EncounterRepository { return &gormEncounterRepository{db: s.db} }
func (s *GormStore) Audit() AuditRepository          { return &gormAuditRepository{db: s.db} }

// Transaction runs fn inside a single database transaction
func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}

// Ping checks database connectivity
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

type gormUserRepository struct {
	db *gorm.DB
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

func (r *gormUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get user: %w", translate(err))
	}
	return &user, nil
}

func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", translate(err))
	}
	return &user, nil
}

type gormEncounterRepository struct {
	db *gorm.DB
}

func (r *gormEncounterRepository) Create(ctx context.Context, enc *models.Encounter) error {
	if err := r.db.WithContext(ctx).Create(enc).Error; err != nil {
		return fmt.Errorf("failed to create encounter: %w", translate(err))
	}
	return nil
}

func (r *gormEncounterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Encounter, error) {
	var enc models.Encounter
	if err := r.db.WithContext(ctx).First(&enc, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get encounter: %w", translate(err))
	}
	return &enc, nil
}

func (r *gormEncounterRepository) Update(ctx context.Context, enc *models.Encounter) error {
	if err := r.db.WithContext(ctx).Save(enc).Error; err != nil {
		return fmt.Errorf("failed to update encounter: %w", translate(err))
	}
	return nil
}

func (r *gormEncounterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Encounter{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete encounter: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormEncounterRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]models.Encounter, error) {
	var encounters []models.Encounter
	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC")

	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&encounters).Error; err != nil {
		return nil, fmt.Errorf("failed to list encounters: %w", translate(err))
	}
	return encounters, nil
}

type gormAuditRepository struct {
	db *gorm.DB
}

func (r *gormAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", translate(err))
	}
	return nil
}

func (r *gormAuditRepository) ListByEncounter(ctx context.Context, encounterID uuid.UUID) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	if err := r.db.WithContext(ctx).
		Where("encounter_id = ?", encounterID).
		Order("occurred_at ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", translate(err))
	}
	return logs, nil
}
