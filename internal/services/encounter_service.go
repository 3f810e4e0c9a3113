package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/clinote/clinote-backend/internal/apperr"
	"github.com/clinote/clinote-backend/internal/metrics"
	"github.com/clinote/clinote-backend/internal/models"
	"github.com/clinote/clinote-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

const (
	// DefaultPageSize is used when the caller supplies no limit
	DefaultPageSize = 50
	// MaxPageSize caps caller-supplied limits
	MaxPageSize = 200
)

// EncounterService owns the DRAFT -> SIGNED -> EXPORTED lifecycle.
// Every mutation and its audit entry run inside one store
// transaction: both commit or neither does.
type EncounterService struct {
	store repository.Store
}

// NewEncounterService creates a new encounter service
func NewEncounterService(store repository.Store) *EncounterService {
	return &EncounterService{store: store}
}

// Create inserts a new DRAFT encounter owned by the principal.
// Requests that claim SIGNED or EXPORTED at creation are rejected:
// there is no way to carry signed_by/signed_at through create, so
// accepting them would break the sign invariant.
func (s *EncounterService) Create(ctx context.Context, principal *models.User, req *models.CreateEncounterRequest) (*models.Encounter, error) {
	if strings.TrimSpace(req.Encounter.PatientName) == "" {
		return nil, apperr.New(apperr.Validation, "patientName is required")
	}
	if strings.TrimSpace(req.Encounter.PatientID) == "" {
		return nil, apperr.New(apperr.Validation, "patientId is required")
	}

	visitType, err := models.ParseVisitType(req.Encounter.VisitType)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "unknown visit type")
	}

	encounterDate, err := parseEncounterDate(req.Encounter.Date)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "encounter date must be an ISO 8601 timestamp")
	}

	status := models.StatusDraft
	if req.Status != "" {
		parsed, err := models.ParseEncounterStatus(req.Status)
		if err != nil {
			return nil, apperr.New(apperr.Validation, "unknown encounter status")
		}
		if parsed != models.StatusDraft {
			return nil, apperr.New(apperr.Validation, "encounters must be created as drafts")
		}
		status = parsed
	}

	enc := &models.Encounter{
		OwnerID:       principal.ID,
		PatientName:   req.Encounter.PatientName,
		PatientID:     req.Encounter.PatientID,
		VisitType:     visitType,
		EncounterDate: encounterDate,
		Transcript:    req.Transcript,
		Record:        req.Record,
		Status:        status,
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Encounters().Create(ctx, enc); err != nil {
			return err
		}
		return tx.Audit().Create(ctx, &models.AuditLog{
			EncounterID: &enc.ID,
			ActorID:     principal.ID,
			Action:      models.ActionCreated,
		})
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Dependency, "failed to create encounter", err)
	}

	metrics.AuditEntries.WithLabelValues(string(models.ActionCreated)).Inc()
	log.Info().Str("encounter_id", enc.ID.String()).Str("owner_id", principal.ID.String()).Msg("Encounter created")
	return enc, nil
}

// Get returns an owned encounter and records the view
func (s *EncounterService) Get(ctx context.Context, principal *models.User, id uuid.UUID) (*models.Encounter, error) {
	var enc *models.Encounter
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		loaded, err := loadOwned(ctx, tx, principal, id)
		if err != nil {
			return err
		}
		enc = loaded
		return tx.Audit().Create(ctx, &models.AuditLog{
			EncounterID: &enc.ID,
			ActorID:     principal.ID,
			Action:      models.ActionViewed,
		})
	})
	if err != nil {
		return nil, classify(err, "failed to get encounter")
	}

	metrics.AuditEntries.WithLabelValues(string(models.ActionViewed)).Inc()
	return enc, nil
}

// List returns the principal's encounters, newest first. The limit is
// clamped to MaxPageSize; unset or invalid values fall back to the
// default page size.
func (s *EncounterService) List(ctx context.Context, principal *models.User, skip, limit int) ([]models.Encounter, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	encounters, err := s.store.Encounters().ListByOwner(ctx, principal.ID, skip, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Dependency, "failed to list encounters", err)
	}
	return encounters, nil
}

// Update applies a partial patch to a DRAFT encounter. Signed and
// exported encounters are locked. Changed fields are audited by name
// with an opaque marker; clinical text is never copied into the
// audit trail. A patch that changes nothing succeeds without writing
// an audit entry.
func (s *EncounterService) Update(ctx context.Context, principal *models.User, id uuid.UUID, req *models.UpdateEncounterRequest) (*models.Encounter, error) {
	if req.Status != nil {
		parsed, err := models.ParseEncounterStatus(*req.Status)
		if err != nil {
			return nil, apperr.New(apperr.Validation, "unknown encounter status")
		}
		switch parsed {
		case models.StatusSigned:
			return nil, apperr.New(apperr.InvalidState, "encounters are signed through the sign operation")
		case models.StatusExported:
			return nil, apperr.New(apperr.InvalidState, "encounters are exported through the export operation")
		}
	}

	var enc *models.Encounter
	var audited bool
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		loaded, err := loadOwned(ctx, tx, principal, id)
		if err != nil {
			return err
		}
		if loaded.Status.Locked() {
			return apperr.New(apperr.InvalidState, "cannot update a signed encounter")
		}

		changes := make(map[string]string)
		if req.Record != nil {
			loaded.Record = req.Record
			changes["record"] = "updated"
		}
		if req.Transcript != nil {
			loaded.Transcript = *req.Transcript
			changes["transcript"] = "updated"
		}

		enc = loaded
		if len(changes) == 0 {
			return nil
		}

		if err := tx.Encounters().Update(ctx, loaded); err != nil {
			return err
		}
		audited = true
		return tx.Audit().Create(ctx, &models.AuditLog{
			EncounterID: &loaded.ID,
			ActorID:     principal.ID,
			Action:      models.ActionUpdated,
			Changes:     marshalChanges(changes),
		})
	})
	if err != nil {
		return nil, classify(err, "failed to update encounter")
	}

	if audited {
		metrics.AuditEntries.WithLabelValues(string(models.ActionUpdated)).Inc()
	}
	return enc, nil
}

// Sign transitions a DRAFT encounter to SIGNED. The transition is
// irreversible; afterwards the record is immutable.
func (s *EncounterService) Sign(ctx context.Context, principal *models.User, id uuid.UUID, req *models.SignNoteRequest) (*models.Encounter, error) {
	if strings.TrimSpace(req.SignedBy) == "" {
		return nil, apperr.New(apperr.Validation, "signedBy is required")
	}

	var enc *models.Encounter
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		loaded, err := loadOwned(ctx, tx, principal, id)
		if err != nil {
			return err
		}
		if loaded.Status.Locked() {
			return apperr.New(apperr.InvalidState, "encounter is already signed")
		}

		now := time.Now().UTC()
		loaded.Status = models.StatusSigned
		loaded.SignedBy = req.SignedBy
		loaded.SignedAt = &now

		if err := tx.Encounters().Update(ctx, loaded); err != nil {
			return err
		}
		enc = loaded
		return tx.Audit().Create(ctx, &models.AuditLog{
			EncounterID: &loaded.ID,
			ActorID:     principal.ID,
			Action:      models.ActionSigned,
			Changes:     marshalChanges(map[string]string{"signedBy": req.SignedBy}),
		})
	})
	if err != nil {
		return nil, classify(err, "failed to sign encounter")
	}

	metrics.AuditEntries.WithLabelValues(string(models.ActionSigned)).Inc()
	log.Info().Str("encounter_id", enc.ID.String()).Str("signed_by", enc.SignedBy).Msg("Encounter signed")
	return enc, nil
}

// Export transitions a SIGNED encounter to EXPORTED, the terminal
// state. No other state may export.
func (s *EncounterService) Export(ctx context.Context, principal *models.User, id uuid.UUID) (*models.Encounter, error) {
	var enc *models.Encounter
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		loaded, err := loadOwned(ctx, tx, principal, id)
		if err != nil {
			return err
		}
		if loaded.Status != models.StatusSigned {
			return apperr.New(apperr.InvalidState, "only signed encounters can be exported")
		}

		loaded.Status = models.StatusExported
		if err := tx.Encounters().Update(ctx, loaded); err != nil {
			return err
		}
		enc = loaded
		return tx.Audit().Create(ctx, &models.AuditLog{
			EncounterID: &loaded.ID,
			ActorID:     principal.ID,
			Action:      models.ActionExported,
		})
	})
	if err != nil {
		return nil, classify(err, "failed to export encounter")
	}

	metrics.AuditEntries.WithLabelValues(string(models.ActionExported)).Inc()
	return enc, nil
}

// Delete removes a DRAFT encounter. Signed records cannot be
// destroyed. The audit entry is written in the same transaction,
// before the row is removed, so the trail survives the deletion.
func (s *EncounterService) Delete(ctx context.Context, principal *models.User, id uuid.UUID) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		loaded, err := loadOwned(ctx, tx, principal, id)
		if err != nil {
			return err
		}
		if loaded.Status.Locked() {
			return apperr.New(apperr.InvalidState, "cannot delete a signed encounter")
		}

		if err := tx.Audit().Create(ctx, &models.AuditLog{
			EncounterID: &loaded.ID,
			ActorID:     principal.ID,
			Action:      models.ActionDeleted,
		}); err != nil {
			return err
		}
		return tx.Encounters().Delete(ctx, loaded.ID)
	})
	if err != nil {
		return classify(err, "failed to delete encounter")
	}

	metrics.AuditEntries.WithLabelValues(string(models.ActionDeleted)).Inc()
	log.Info().Str("encounter_id", id.String()).Msg("Encounter deleted")
	return nil
}

// AuditTrail returns the audit entries for an owned encounter in
// chronological order. Reading the trail is not itself audited.
func (s *EncounterService) AuditTrail(ctx context.Context, principal *models.User, id uuid.UUID) ([]models.AuditLog, error) {
	if _, err := loadOwned(ctx, s.store, principal, id); err != nil {
		return nil, classify(err, "failed to load encounter")
	}

	logs, err := s.store.Audit().ListByEncounter(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.Dependency, "failed to list audit trail", err)
	}
	return logs, nil
}

// loadOwned fetches an encounter and enforces ownership. Existence
// is checked first, so a foreign id yields Forbidden rather than
// NotFound; that leaks existence to non-owners and is kept for
// parity with the previous behavior.
func loadOwned(ctx context.Context, tx repository.Store, principal *models.User, id uuid.UUID) (*models.Encounter, error) {
	enc, err := tx.Encounters().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.NotFound, "encounter not found")
		}
		return nil, err
	}
	if enc.OwnerID != principal.ID {
		return nil, apperr.New(apperr.Forbidden, "not authorized to access this encounter")
	}
	return enc, nil
}

// classify keeps already-classified errors intact and wraps the rest
// as store failures.
func classify(err error, message string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Wrap(apperr.Dependency, message, err)
}

func marshalChanges(changes map[string]string) datatypes.JSON {
	raw, err := json.Marshal(changes)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// parseEncounterDate accepts RFC 3339 timestamps and bare dates
func parseEncounterDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format")
}
