package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/clinote/clinote-backend/internal/models"
	"github.com/google/uuid"
)

// MemoryStore implements Store using in-memory maps. It backs local
// development (DB_DRIVER=memory) and the test suite. Transactions
// operate on a snapshot that is swapped in only on success.
type MemoryStore struct {
	mu   sync.RWMutex
	data *memoryData
}

type memoryData struct {
	users      map[uuid.UUID]models.User
	emailIndex map[string]uuid.UUID
	encounters map[uuid.UUID]models.Encounter
	encSeq     map[uuid.UUID]uint64
	audit      []models.AuditLog
	seq        uint64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemoryData()}
}

func newMemoryData() *memoryData {
	return &memoryData{
		users:      make(map[uuid.UUID]models.User),
		emailIndex: make(map[string]uuid.UUID),
		encounters: make(map[uuid.UUID]models.Encounter),
		encSeq:     make(map[uuid.UUID]uint64),
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.emailIndex {
		c.emailIndex[k] = v
	}
	for k, v := range d.encounters {
		c.encounters[k] = v
	}
	for k, v := range d.encSeq {
		c.encSeq[k] = v
	}
	c.audit = append(c.audit, d.audit...)
	c.seq = d.seq
	return c
}

func (s *MemoryStore) Users() UserRepository           { return &memoryUserRepository{store: s} }
func (s *MemoryStore) Encounters() EncounterRepository { return &memoryEncounterRepository{store: s} }
func (s *MemoryStore) Audit() AuditRepository          { return &memoryAuditRepository{store: s} }

// Transaction runs fn against a snapshot, publishing it only if fn
// succeeds. A failing fn leaves the store untouched.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &MemoryStore{data: s.data.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

// Ping always succeeds for the in-memory store
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

type memoryUserRepository struct {
	store *MemoryStore
}

func (r *memoryUserRepository) Create(ctx context.Context, user *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RoleProvider
	}
	if _, exists := r.store.data.emailIndex[user.Email]; exists {
		return fmt.Errorf("failed to create user: %w", ErrDuplicate)
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.store.data.users[user.ID] = *user
	r.store.data.emailIndex[user.Email] = user.ID
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.data.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to get user: %w", ErrNotFound)
	}
	return &user, nil
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.data.emailIndex[email]
	if !ok {
		return nil, fmt.Errorf("failed to get user by email: %w", ErrNotFound)
	}
	user := r.store.data.users[id]
	return &user, nil
}

type memoryEncounterRepository struct {
	store *MemoryStore
}

func (r *memoryEncounterRepository) Create(ctx context.Context, enc *models.Encounter) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if enc.ID == uuid.Nil {
		enc.ID = uuid.New()
	}
	now := time.Now().UTC()
	enc.CreatedAt = now
	enc.UpdatedAt = now

	r.store.data.seq++
	r.store.data.encSeq[enc.ID] = r.store.data.seq
	r.store.data.encounters[enc.ID] = *enc
	return nil
}

func (r *memoryEncounterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Encounter, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	enc, ok := r.store.data.encounters[id]
	if !ok {
		return nil, fmt.Errorf("failed to get encounter: %w", ErrNotFound)
	}
	return &enc, nil
}

func (r *memoryEncounterRepository) Update(ctx context.Context, enc *models.Encounter) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.encounters[enc.ID]; !ok {
		return fmt.Errorf("failed to update encounter: %w", ErrNotFound)
	}
	enc.UpdatedAt = time.Now().UTC()
	r.store.data.encounters[enc.ID] = *enc
	return nil
}

func (r *memoryEncounterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.encounters[id]; !ok {
		return ErrNotFound
	}
	delete(r.store.data.encounters, id)
	delete(r.store.data.encSeq, id)
	return nil
}

func (r *memoryEncounterRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]models.Encounter, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []models.Encounter
	for _, enc := range r.store.data.encounters {
		if enc.OwnerID == ownerID {
			out = append(out, enc)
		}
	}

	// Newest first; insertion order breaks timestamp ties.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.store.data.encSeq[out[i].ID] > r.store.data.encSeq[out[j].ID]
	})

	if offset > 0 {
		if offset >= len(out) {
			return []models.Encounter{}, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type memoryAuditRepository struct {
	store *MemoryStore
}

func (r *memoryAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	r.store.data.audit = append(r.store.data.audit, *entry)
	return nil
}

func (r *memoryAuditRepository) ListByEncounter(ctx context.Context, encounterID uuid.UUID) ([]models.AuditLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	// Entries are appended in commit order, which is chronological.
	var out []models.AuditLog
	for _, entry := range r.store.data.audit {
		if entry.EncounterID != nil && *entry.EncounterID == encounterID {
			out = append(out, entry)
		}
	}
	return out, nil
}
