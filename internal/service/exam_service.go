package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/openexam/cbe-backend/internal/config"
	"github.com/openexam/cbe-backend/internal/examcore"
	"github.com/openexam/cbe-backend/internal/model"
	"github.com/openexam/cbe-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrSubjectNotFound      = errors.New("subject not found")
	ErrNoQuestionsAvailable = errors.New("subject has no questions available")
	ErrSubmissionFailed     = errors.New("exam submission failed")
)

// ExamService drives timed exam sessions: it starts sessions, feeds the
// answer ledger, and acts as the submission endpoint that grades a frozen
// snapshot and queues the attempt for persistence.
type ExamService struct {
	subjectRepo  *repository.SubjectRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	manager      *examcore.Manager
	log          zerolog.Logger

	// runCtx bounds countdown goroutines to the process lifetime rather
	// than to the HTTP request that started the session.
	runCtx context.Context
}

// NewExamService creates a new ExamService.
func NewExamService(
	runCtx context.Context,
	subjectRepo *repository.SubjectRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	manager *examcore.Manager,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		subjectRepo:  subjectRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		manager:      manager,
		log:          log.With().Str("component", "exam_service").Logger(),
		runCtx:       runCtx,
	}
}

// StartExam creates a live session for the student and starts its countdown.
// Starting a new exam while another session is unsubmitted discards the old
// attempt without a submission.
func (s *ExamService) StartExam(ctx context.Context, subjectID int64, studentID int) (*model.StartExamResponse, error) {
	subject, err := s.subjectRepo.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("get subject: %w", err)
	}

	forStudent, err := s.subjectPaper(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	coreQuestions := make([]examcore.Question, len(forStudent))
	for i, q := range forStudent {
		coreQuestions[i] = examcore.Question{
			ID:      q.ID,
			Text:    q.QuestionText,
			Options: q.Options,
		}
	}

	session, err := examcore.NewSession(subjectID, studentID, coreQuestions, subject.DurationMinutes*60)
	if err != nil {
		return nil, err
	}

	coord := examcore.NewCoordinator(session, s)
	countdown := examcore.NewCountdown(coord, s.log)
	s.manager.Start(studentID, coord)
	go countdown.Run(s.runCtx)

	s.log.Info().
		Int64("subject_id", subjectID).
		Int("student_id", studentID).
		Int("questions", len(forStudent)).
		Int("duration_seconds", subject.DurationMinutes*60).
		Msg("Exam session started")

	return &model.StartExamResponse{
		SubjectID:     subjectID,
		SubjectName:   subject.Name,
		Questions:     forStudent,
		TimeRemaining: session.TimeRemaining(),
		StartedAt:     session.StartedAt,
	}, nil
}

// RecordAnswer writes one answer to the live session's ledger. Writes after
// the ledger froze are silent no-ops by design of the core.
func (s *ExamService) RecordAnswer(subjectID int64, studentID int, questionID int64, optionIndex int) error {
	coord, err := s.manager.Get(studentID, subjectID)
	if err != nil {
		return err
	}
	return coord.Session().SetAnswer(questionID, optionIndex)
}

// GetState returns the reload view of a live session: recorded answers and
// remaining time.
func (s *ExamService) GetState(subjectID int64, studentID int) (*model.ExamSessionState, error) {
	coord, err := s.manager.Get(studentID, subjectID)
	if err != nil {
		return nil, err
	}

	session := coord.Session()
	return &model.ExamSessionState{
		SubjectID:     subjectID,
		StudentID:     studentID,
		State:         string(coord.State()),
		Answers:       session.Snapshot(),
		AnsweredCount: session.AnsweredCount(),
		QuestionCount: session.QuestionCount(),
		TimeRemaining: session.TimeRemaining(),
		StartedAt:     session.StartedAt,
	}, nil
}

// Coordinator exposes the live coordinator for a student's session. The
// WebSocket stream attaches to it for tick delivery.
func (s *ExamService) Coordinator(subjectID int64, studentID int) (*examcore.Coordinator, error) {
	return s.manager.Get(studentID, subjectID)
}

// SubmitOutcome is what a submit request produced: either a result, or the
// information that a submission is already in flight.
type SubmitOutcome struct {
	State    examcore.State   `json:"state"`
	Result   *examcore.Result `json:"result,omitempty"`
	InFlight bool             `json:"in_flight,omitempty"`
}

// Submit handles a manual submit request for a student's live session.
// A session in Failed is retried with its frozen snapshot; a duplicate
// trigger while Submitting is absorbed, reported as in-flight rather than
// as an error.
func (s *ExamService) Submit(ctx context.Context, subjectID int64, studentID int) (*SubmitOutcome, error) {
	coord, err := s.manager.Get(studentID, subjectID)
	if err != nil {
		return nil, err
	}

	// The timer may have submitted first. Report the stored result instead
	// of treating the click as a duplicate.
	if coord.State() == examcore.StateSubmitted {
		s.manager.Remove(studentID, coord)
		return &SubmitOutcome{State: coord.State(), Result: coord.Result()}, nil
	}

	var result *examcore.Result
	if coord.State() == examcore.StateFailed {
		result, err = coord.Retry(ctx)
	} else {
		result, err = coord.Submit(ctx, examcore.TriggerManual)
	}

	if errors.Is(err, examcore.ErrAlreadySubmitting) {
		return &SubmitOutcome{State: coord.State(), InFlight: true}, nil
	}
	if err != nil {
		return nil, err
	}

	s.manager.Remove(studentID, coord)
	return &SubmitOutcome{State: coord.State(), Result: result}, nil
}

// SubmitExam is the submission endpoint called by the Coordinator, at most
// once per session plus explicit retries. It grades the frozen snapshot
// against the answer key and queues the attempt for persistence. Any error
// leaves nothing persisted — the Coordinator lands in Failed and the same
// snapshot is used on retry.
func (s *ExamService) SubmitExam(ctx context.Context, subjectID int64, studentID int, answers map[int64]int) (*examcore.Result, error) {
	key, err := s.answerKey(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: answer key: %v", ErrSubmissionFailed, err)
	}

	subject, err := s.subjectRepo.GetByID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: get subject: %v", ErrSubmissionFailed, err)
	}

	result := examcore.Score(answers, key, subject.PassingScore)

	attempt := attemptPayload{
		StudentID:   studentID,
		SubjectID:   subjectID,
		Answers:     stringifyAnswers(answers),
		Score:       result.Score,
		Total:       result.Total,
		Percentage:  result.Percentage,
		Passed:      result.Passed,
		SubmittedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(attempt)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal attempt: %v", ErrSubmissionFailed, err)
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, raw).Err(); err != nil {
		return nil, fmt.Errorf("%w: queue attempt: %v", ErrSubmissionFailed, err)
	}

	s.log.Info().
		Int64("subject_id", subjectID).
		Int("student_id", studentID).
		Int("score", result.Score).
		Int("total", result.Total).
		Int("percentage", result.Percentage).
		Bool("passed", result.Passed).
		Msg("Exam submitted and graded")

	return &result, nil
}

// attemptPayload is the wire format pushed onto the persistence queue.
type attemptPayload struct {
	StudentID   int            `json:"student_id"`
	SubjectID   int64          `json:"subject_id"`
	Answers     map[string]int `json:"answers"`
	Score       int            `json:"score"`
	Total       int            `json:"total"`
	Percentage  int            `json:"percentage"`
	Passed      bool           `json:"passed"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

func stringifyAnswers(answers map[int64]int) map[string]int {
	m := make(map[string]int, len(answers))
	for qid, opt := range answers {
		m[strconv.FormatInt(qid, 10)] = opt
	}
	return m
}

// ─── Subject fast lanes ────────────────────────────────────────────────────

// subjectPaper returns the student-facing question set, served from the
// Redis paper cache when warm and from PostgreSQL otherwise. A miss
// self-heals both subject caches.
func (s *ExamService) subjectPaper(ctx context.Context, subjectID int64) ([]model.QuestionForStudent, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.SubjectPaperKey(subjectID)).Result()
	if err == nil {
		var paper []model.QuestionForStudent
		if jerr := json.Unmarshal([]byte(raw), &paper); jerr == nil && len(paper) > 0 {
			return paper, nil
		}
		s.log.Warn().Int64("subject_id", subjectID).Msg("Corrupt paper cache entry, rebuilding from PostgreSQL")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Int64("subject_id", subjectID).Msg("Paper cache read failed, falling back to PostgreSQL")
	}

	questions, err := s.questionRepo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	if err := s.warmSubjectCache(ctx, subjectID, questions); err != nil {
		s.log.Warn().Err(err).Int64("subject_id", subjectID).Msg("Cache warm failed, grading will fall back to PostgreSQL")
	}

	return paperFromQuestions(questions), nil
}

func paperFromQuestions(questions []model.Question) []model.QuestionForStudent {
	paper := make([]model.QuestionForStudent, len(questions))
	for i, q := range questions {
		paper[i] = model.QuestionForStudent{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			Options:      q.Options(),
		}
	}
	return paper
}

// warmSubjectCache loads a subject's answer key hash and student-facing
// paper into Redis so neither exam start nor grading has to touch
// PostgreSQL on the hot path.
func (s *ExamService) warmSubjectCache(ctx context.Context, subjectID int64, questions []model.Question) error {
	keyHash := make(map[string]interface{}, len(questions))
	for _, q := range questions {
		keyHash[strconv.FormatInt(q.ID, 10)] = strconv.Itoa(q.CorrectIndex())
	}

	paper, err := json.Marshal(paperFromQuestions(questions))
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}

	answerKey := config.CacheKey.SubjectAnswerKey(subjectID)
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, answerKey)
	pipe.HSet(ctx, answerKey, keyHash)
	pipe.Set(ctx, config.CacheKey.SubjectPaperKey(subjectID), paper, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache subject: %w", err)
	}

	s.log.Debug().
		Int64("subject_id", subjectID).
		Int("questions", len(questions)).
		Msg("Subject caches warmed")
	return nil
}

// PrewarmAllCaches loads every subject's answer key into Redis on startup,
// avoiding lazy-load races under a thundering herd of exam starts.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	subjects, err := s.subjectRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("list subjects: %w", err)
	}

	warmed := 0
	for i := range subjects {
		questions, err := s.questionRepo.ListBySubject(ctx, subjects[i].ID)
		if err != nil || len(questions) == 0 {
			continue
		}
		if err := s.warmSubjectCache(ctx, subjects[i].ID, questions); err != nil {
			s.log.Warn().Err(err).Int64("subject_id", subjects[i].ID).Msg("Failed to warm subject, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().Int("warmed", warmed).Int("total", len(subjects)).Msg("Prewarming complete")
	return nil
}

// answerKey reads the subject's answer key from Redis, falling back to
// PostgreSQL on a cache miss (evicted key or legacy subject) and
// self-healing the cache afterwards.
func (s *ExamService) answerKey(ctx context.Context, subjectID int64) (map[int64]int, error) {
	cached, err := s.rdb.HGetAll(ctx, config.CacheKey.SubjectAnswerKey(subjectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get cached key: %w", err)
	}

	if len(cached) > 0 {
		key := make(map[int64]int, len(cached))
		for qidStr, idxStr := range cached {
			qid, err := strconv.ParseInt(qidStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid cached question id %q: %w", qidStr, err)
			}
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, fmt.Errorf("invalid cached option %q: %w", idxStr, err)
			}
			key[qid] = idx
		}
		return key, nil
	}

	// Cache miss — fall back to the source of truth.
	questions, err := s.questionRepo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	key := make(map[int64]int, len(questions))
	for _, q := range questions {
		key[q.ID] = q.CorrectIndex()
	}

	_ = s.warmSubjectCache(ctx, subjectID, questions)

	return key, nil
}
