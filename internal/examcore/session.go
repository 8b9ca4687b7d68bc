package examcore

import (
	"sync"
	"time"
)

// State enumerates the lifecycle states of an exam session.
type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateInProgress State = "IN_PROGRESS"
	StateSubmitting State = "SUBMITTING"
	StateSubmitted  State = "SUBMITTED"
	StateFailed     State = "FAILED"
)

// Question is one multiple-choice question as held by a live session.
// The correct option never enters the session — grading happens at submit
// time against the server-side answer key.
type Question struct {
	ID      int64     `json:"id"`
	Text    string    `json:"question_text"`
	Options [4]string `json:"options"`
}

// Session is one student's single timed attempt at one subject's question
// set. It owns the answer ledger and the remaining-time counter. All access
// goes through the mutex; the countdown goroutine and HTTP/WS handlers share
// one Session instance.
type Session struct {
	mu sync.Mutex

	SubjectID int64
	StudentID int
	StartedAt time.Time

	questions []Question
	answers   map[int64]int
	remaining int
	state     State
	expired   bool
}

// NewSession creates a session in the NotStarted state.
// The question order is fixed for the lifetime of the session.
func NewSession(subjectID int64, studentID int, questions []Question, durationSeconds int) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	qs := make([]Question, len(questions))
	copy(qs, questions)

	return &Session{
		SubjectID: subjectID,
		StudentID: studentID,
		StartedAt: time.Now(),
		questions: qs,
		answers:   make(map[int64]int),
		remaining: durationSeconds,
		state:     StateNotStarted,
	}, nil
}

// start transitions NotStarted → InProgress. Called by the Coordinator once
// the session is handed to a countdown.
func (s *Session) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateNotStarted {
		s.state = StateInProgress
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Questions returns a copy of the ordered question list.
func (s *Session) Questions() []Question {
	qs := make([]Question, len(s.questions))
	copy(qs, s.questions)
	return qs
}

// QuestionCount returns the number of questions in the session.
func (s *Session) QuestionCount() int {
	return len(s.questions)
}

// Question returns the question at the given zero-based index.
func (s *Session) Question(index int) (Question, error) {
	if index < 0 || index >= len(s.questions) {
		return Question{}, ErrIndexOutOfRange
	}
	return s.questions[index], nil
}

// SetAnswer records the selected option for a question, overwriting any
// prior choice. Once the session has left InProgress the ledger is frozen
// and the call is a silent no-op.
func (s *Session) SetAnswer(questionID int64, optionIndex int) error {
	if optionIndex < 0 || optionIndex > 3 {
		return ErrInvalidOption
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return nil
	}

	s.answers[questionID] = optionIndex
	return nil
}

// AnsweredCount returns the number of questions with a recorded answer.
// Used for progress display only — a partially answered exam is submittable.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// Snapshot returns a copy of the answers map.
func (s *Session) Snapshot() map[int64]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() map[int64]int {
	snap := make(map[int64]int, len(s.answers))
	for qid, opt := range s.answers {
		snap[qid] = opt
	}
	return snap
}

// TimeRemaining returns the remaining seconds.
func (s *Session) TimeRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// tick decrements the remaining time by one second, clamped at zero.
// It returns the new remaining value and whether this tick crossed into
// expiry. The expiry signal fires exactly once — later ticks at zero
// (timer drift) report expired=false. Time never moves once the session
// has left InProgress.
func (s *Session) tick() (remaining int, expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return s.remaining, false
	}

	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 && !s.expired {
		s.expired = true
		return 0, true
	}
	return s.remaining, false
}

// beginSubmit is the atomic guard for the InProgress → Submitting
// transition. Exactly one caller wins; everyone else gets
// ErrAlreadySubmitting. The winner receives the frozen answers snapshot.
// The flag flips before any network call is issued, so a manual submit and
// a timer expiry racing each other can never both reach the endpoint.
func (s *Session) beginSubmit() (map[int64]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return nil, ErrAlreadySubmitting
	}

	s.state = StateSubmitting
	return s.snapshotLocked(), nil
}

// beginRetry transitions Failed → Submitting for an explicit user retry.
func (s *Session) beginRetry() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateFailed {
		return ErrNotFailed
	}
	s.state = StateSubmitting
	return nil
}

// finishSubmit records the outcome of a submission attempt.
func (s *Session) finishSubmit(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSubmitting {
		return
	}
	if ok {
		s.state = StateSubmitted
	} else {
		s.state = StateFailed
	}
}
