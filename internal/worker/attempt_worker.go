package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openexam/cbe-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	AttemptPollTimeout = 1 * time.Second
)

// AttemptWorker consumes persist_attempts_queue and writes completed exam
// attempts to PostgreSQL. Grading happens in RAM at submit time; this worker
// only persists the immutable record.
type AttemptWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewAttemptWorker creates a new AttemptWorker.
func NewAttemptWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *AttemptWorker {
	return &AttemptWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "attempt_worker").Logger(),
	}
}

type attemptPayload struct {
	StudentID   int             `json:"student_id"`
	SubjectID   int64           `json:"subject_id"`
	Answers     json.RawMessage `json:"answers"`
	Score       int             `json:"score"`
	Total       int             `json:"total"`
	Percentage  int             `json:"percentage"`
	Passed      bool            `json:"passed"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AttemptWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AttemptWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Draining queue...")
			w.drain(context.Background())
			w.log.Info().Msg("AttemptWorker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AttemptWorker) processNext(ctx context.Context) {
	item, err := w.rdb.BLPop(ctx, AttemptPollTimeout, config.WorkerKey.PersistAttemptsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(item) < 2 {
		return
	}

	var p attemptPayload
	if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return
	}

	if err := w.persistAttempt(ctx, &p); err != nil {
		w.log.Error().Err(err).
			Int("student_id", p.StudentID).
			Int64("subject_id", p.SubjectID).
			Msg("Persist error, requeueing and retrying in 5s")
		w.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, item[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *AttemptWorker) persistAttempt(ctx context.Context, p *attemptPayload) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO exam_attempts (student_id, subject_id, answers, score, total, percentage, passed, status, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 'COMPLETED', $8)`,
		p.StudentID, p.SubjectID, p.Answers, p.Score, p.Total, p.Percentage, p.Passed, p.SubmittedAt,
	)
	return err
}

// drain processes all remaining items in the queue before shutdown.
func (w *AttemptWorker) drain(ctx context.Context) {
	drained := 0
	for {
		item, err := w.rdb.LPop(ctx, config.WorkerKey.PersistAttemptsQueue).Result()
		if err != nil {
			break
		}

		var p attemptPayload
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistAttempt(ctx, &p); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, item)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining attempts")
	}
}
