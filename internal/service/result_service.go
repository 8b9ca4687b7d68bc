package service

import (
	"context"

	"github.com/openexam/cbe-backend/internal/model"
	"github.com/openexam/cbe-backend/internal/repository"
)

// ResultService exposes read-only views over persisted exam attempts.
type ResultService struct {
	attemptRepo *repository.AttemptRepository
}

// NewResultService creates a new ResultService.
func NewResultService(attemptRepo *repository.AttemptRepository) *ResultService {
	return &ResultService{attemptRepo: attemptRepo}
}

// ListForStudent returns a student's attempts, newest first.
func (s *ResultService) ListForStudent(ctx context.Context, studentID int) ([]model.ExamAttempt, error) {
	return s.attemptRepo.ListByStudent(ctx, studentID)
}

// ListAll returns every attempt. Admin results view.
func (s *ResultService) ListAll(ctx context.Context) ([]model.ExamAttempt, error) {
	return s.attemptRepo.ListAll(ctx)
}
