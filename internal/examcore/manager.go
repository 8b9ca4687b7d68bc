package examcore

import (
	"sync"

	"github.com/rs/zerolog"
)

// Manager tracks the single live session per student. Starting a new exam
// while an unsubmitted one exists discards the old attempt — its countdown
// is stopped and its state is dropped without a submission.
type Manager struct {
	mu       sync.Mutex
	sessions map[int]*Coordinator
	log      zerolog.Logger
}

// NewManager creates an empty session manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[int]*Coordinator),
		log:      log.With().Str("component", "session_manager").Logger(),
	}
}

// Start registers a new coordinator for the student, replacing any existing
// one. The replaced session's countdown stops immediately.
func (m *Manager) Start(studentID int, coord *Coordinator) {
	m.mu.Lock()
	prev := m.sessions[studentID]
	m.sessions[studentID] = coord
	m.mu.Unlock()

	if prev != nil && prev.State() == StateInProgress {
		if prev.countdown != nil {
			prev.countdown.Stop()
		}
		m.log.Warn().
			Int("student_id", studentID).
			Int64("subject_id", prev.session.SubjectID).
			Msg("Discarded unsubmitted session")
	}
}

// Get returns the student's live coordinator for the given subject.
func (m *Manager) Get(studentID int, subjectID int64) (*Coordinator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	coord, ok := m.sessions[studentID]
	if !ok || coord.session.SubjectID != subjectID {
		return nil, ErrNoActiveSession
	}
	return coord, nil
}

// Remove drops the student's session if it matches the given coordinator.
// Called after a session reaches Submitted and its result is delivered.
func (m *Manager) Remove(studentID int, coord *Coordinator) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions[studentID] == coord {
		delete(m.sessions, studentID)
	}
}
