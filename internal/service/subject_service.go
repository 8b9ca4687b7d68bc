package service

import (
	"context"

	"github.com/openexam/cbe-backend/internal/config"
	"github.com/openexam/cbe-backend/internal/model"
	"github.com/openexam/cbe-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SubjectService handles subject business logic.
type SubjectService struct {
	subjectRepo *repository.SubjectRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewSubjectService creates a new SubjectService.
func NewSubjectService(subjectRepo *repository.SubjectRepository, rdb *redis.Client, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		subjectRepo: subjectRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "subject_service").Logger(),
	}
}

// GetAll returns every subject.
func (s *SubjectService) GetAll(ctx context.Context) ([]model.Subject, error) {
	return s.subjectRepo.GetAll(ctx)
}

// GetByID returns one subject.
func (s *SubjectService) GetByID(ctx context.Context, id int64) (*model.Subject, error) {
	return s.subjectRepo.GetByID(ctx, id)
}

// Create inserts a new subject.
func (s *SubjectService) Create(ctx context.Context, subject *model.Subject) error {
	if err := s.subjectRepo.Create(ctx, subject); err != nil {
		return err
	}
	s.log.Info().Int64("subject_id", subject.ID).Str("name", subject.Name).Msg("Subject created")
	return nil
}

// Update modifies an existing subject. Timing and passing score changes only
// affect sessions started after the update.
func (s *SubjectService) Update(ctx context.Context, subject *model.Subject) error {
	return s.subjectRepo.Update(ctx, subject)
}

// Delete removes a subject, its questions, and its Redis fast lanes.
func (s *SubjectService) Delete(ctx context.Context, id int64) error {
	if err := s.subjectRepo.Delete(ctx, id); err != nil {
		return err
	}

	err := s.rdb.Del(ctx,
		config.CacheKey.SubjectPaperKey(id),
		config.CacheKey.SubjectAnswerKey(id),
	).Err()
	if err != nil {
		s.log.Warn().Err(err).Int64("subject_id", id).Msg("Cache invalidation failed")
	}
	return nil
}
