package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openexam/cbe-backend/internal/model"
)

// AttemptRepository handles persisted exam attempt records.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create inserts a completed attempt. The answers map is stored as JSONB.
func (r *AttemptRepository) Create(ctx context.Context, a *model.ExamAttempt) error {
	answers, err := marshalAnswers(a.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_attempts (student_id, subject_id, answers, score, total, percentage, passed, status, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		a.StudentID, a.SubjectID, answers, a.Score, a.Total, a.Percentage, a.Passed, a.Status, a.SubmittedAt,
	).Scan(&a.ID)
}

// ListByStudent retrieves a student's attempts, newest first.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID int) ([]model.ExamAttempt, error) {
	return r.list(ctx,
		`SELECT a.id, a.student_id, s.name, a.subject_id, sub.name,
		        a.answers, a.score, a.total, a.percentage, a.passed, a.status, a.submitted_at
		 FROM exam_attempts a
		 JOIN students s ON a.student_id = s.id
		 JOIN subjects sub ON a.subject_id = sub.id
		 WHERE a.student_id = $1
		 ORDER BY a.submitted_at DESC`, studentID)
}

// ListAll retrieves every attempt, newest first. Admin results view.
func (r *AttemptRepository) ListAll(ctx context.Context) ([]model.ExamAttempt, error) {
	return r.list(ctx,
		`SELECT a.id, a.student_id, s.name, a.subject_id, sub.name,
		        a.answers, a.score, a.total, a.percentage, a.passed, a.status, a.submitted_at
		 FROM exam_attempts a
		 JOIN students s ON a.student_id = s.id
		 JOIN subjects sub ON a.subject_id = sub.id
		 ORDER BY a.submitted_at DESC`)
}

func (r *AttemptRepository) list(ctx context.Context, query string, args ...any) ([]model.ExamAttempt, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.ExamAttempt
	for rows.Next() {
		var a model.ExamAttempt
		var answers []byte
		if err := rows.Scan(&a.ID, &a.StudentID, &a.StudentName, &a.SubjectID, &a.SubjectName,
			&answers, &a.Score, &a.Total, &a.Percentage, &a.Passed, &a.Status, &a.SubmittedAt); err != nil {
			return nil, err
		}
		a.Answers, err = unmarshalAnswers(answers)
		if err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// marshalAnswers converts the int64-keyed answers map to JSON. JSON object
// keys are strings, so the conversion lives here at the storage edge.
func marshalAnswers(answers map[int64]int) ([]byte, error) {
	m := make(map[string]int, len(answers))
	for qid, opt := range answers {
		m[strconv.FormatInt(qid, 10)] = opt
	}
	return json.Marshal(m)
}

func unmarshalAnswers(data []byte) (map[int64]int, error) {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(m))
	for k, v := range m {
		qid, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid question id %q: %w", k, err)
		}
		out[qid] = v
	}
	return out, nil
}
