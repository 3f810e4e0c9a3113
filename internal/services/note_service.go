package services

import (
	"context"
	"time"

	"github.com/clinote/clinote-backend/internal/apperr"
	"github.com/clinote/clinote-backend/internal/cache"
	"github.com/clinote/clinote-backend/internal/metrics"
	"github.com/clinote/clinote-backend/internal/models"
	"github.com/clinote/clinote-backend/internal/notegen"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

const minTranscriptLength = 10

// NoteService drafts structured clinical records from transcripts.
// Results are cached by transcript hash so a retried request does not
// trigger a second model call. Cache failures are non-fatal.
type NoteService struct {
	generator notegen.Generator
	cache     cache.Cache
	cacheTTL  time.Duration
}

// NewNoteService creates a new note-generation service
func NewNoteService(generator notegen.Generator, c cache.Cache, cacheTTL time.Duration) *NoteService {
	return &NoteService{generator: generator, cache: c, cacheTTL: cacheTTL}
}

// GenerateNote produces a structured record from a transcript
func (s *NoteService) GenerateNote(ctx context.Context, req *models.GenerateNoteRequest) (datatypes.JSON, error) {
	if len(req.Transcript) < minTranscriptLength {
		return nil, apperr.New(apperr.Validation, "transcript must be at least 10 characters")
	}
	visitType, err := models.ParseVisitType(req.VisitType)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "unknown visit type")
	}

	key := cache.NoteKey(string(visitType), req.Transcript)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			metrics.NoteGenerations.WithLabelValues("cached").Inc()
			return datatypes.JSON(cached), nil
		}
	}

	record, err := s.generator.Generate(ctx, req.Transcript, visitType)
	if err != nil {
		metrics.NoteGenerations.WithLabelValues("failed").Inc()
		log.Error().Err(err).Msg("Note generation failed")
		return nil, apperr.New(apperr.Dependency, "failed to generate clinical note, please try again")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, record, s.cacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache generated note")
		}
	}

	metrics.NoteGenerations.WithLabelValues("generated").Inc()
	return record, nil
}
