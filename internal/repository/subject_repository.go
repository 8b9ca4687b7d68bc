package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openexam/cbe-backend/internal/model"
)

type SubjectRepository struct {
	pool *pgxpool.Pool
}

func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

func (r *SubjectRepository) Create(ctx context.Context, s *model.Subject) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO subjects (name, description, duration_minutes, passing_score)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		s.Name, s.Description, s.DurationMinutes, s.PassingScore,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*model.Subject, error) {
	s := &model.Subject{}
	err := r.pool.QueryRow(ctx,
		`SELECT s.id, s.name, s.description, s.duration_minutes, s.passing_score,
		        (SELECT COUNT(*) FROM questions q WHERE q.subject_id = s.id),
		        s.created_at, s.updated_at
		 FROM subjects s
		 WHERE s.id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Description, &s.DurationMinutes, &s.PassingScore,
		&s.QuestionCount, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SubjectRepository) GetAll(ctx context.Context) ([]model.Subject, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, s.description, s.duration_minutes, s.passing_score,
		        (SELECT COUNT(*) FROM questions q WHERE q.subject_id = s.id),
		        s.created_at, s.updated_at
		 FROM subjects s
		 ORDER BY s.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.DurationMinutes,
			&s.PassingScore, &s.QuestionCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

func (r *SubjectRepository) Update(ctx context.Context, s *model.Subject) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE subjects
		 SET name = $1, description = $2, duration_minutes = $3, passing_score = $4, updated_at = NOW()
		 WHERE id = $5`,
		s.Name, s.Description, s.DurationMinutes, s.PassingScore, s.ID)
	return err
}

func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	return err
}
