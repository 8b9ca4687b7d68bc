package service

import (
	"context"

	"github.com/openexam/cbe-backend/internal/config"
	"github.com/openexam/cbe-backend/internal/model"
	"github.com/openexam/cbe-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// QuestionService handles question business logic. Every mutation drops the
// subject's Redis fast lanes so a live cache never serves a stale paper or
// answer key.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository, rdb *redis.Client, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// ListBySubject returns a subject's questions, correct options included.
// Admin-only — student-facing paths strip the key.
func (s *QuestionService) ListBySubject(ctx context.Context, subjectID int64) ([]model.Question, error) {
	return s.questionRepo.ListBySubject(ctx, subjectID)
}

// GetByID returns one question.
func (s *QuestionService) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// Create inserts a question for a subject.
func (s *QuestionService) Create(ctx context.Context, q *model.Question) error {
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return err
	}
	s.invalidateSubject(ctx, q.SubjectID)
	return nil
}

// Update modifies an existing question.
func (s *QuestionService) Update(ctx context.Context, q *model.Question) error {
	if err := s.questionRepo.Update(ctx, q); err != nil {
		return err
	}
	s.invalidateSubject(ctx, q.SubjectID)
	return nil
}

// Delete removes a question.
func (s *QuestionService) Delete(ctx context.Context, id int64) error {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateSubject(ctx, q.SubjectID)
	return nil
}

// invalidateSubject drops the subject's paper and answer key caches. The
// next exam start or grading call rebuilds them from PostgreSQL.
func (s *QuestionService) invalidateSubject(ctx context.Context, subjectID int64) {
	err := s.rdb.Del(ctx,
		config.CacheKey.SubjectPaperKey(subjectID),
		config.CacheKey.SubjectAnswerKey(subjectID),
	).Err()
	if err != nil {
		s.log.Warn().Err(err).Int64("subject_id", subjectID).Msg("Cache invalidation failed")
	}
}
