package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates persisted attempt outcomes.
type AttemptStatus string

const (
	AttemptStatusCompleted AttemptStatus = "COMPLETED"
)

// ExamAttempt is the immutable record of one submitted exam: the frozen
// answers snapshot plus its score. Created once, after submission.
type ExamAttempt struct {
	ID          uuid.UUID     `json:"id"`
	StudentID   int           `json:"student_id"`
	StudentName string        `json:"student_name,omitempty"`
	SubjectID   int64         `json:"subject_id"`
	SubjectName string        `json:"subject_name,omitempty"`
	Answers     map[int64]int `json:"answers"`
	Score       int           `json:"score"`
	Total       int           `json:"total"`
	Percentage  int           `json:"percentage"`
	Passed      bool          `json:"passed"`
	Status      AttemptStatus `json:"status"`
	SubmittedAt time.Time     `json:"submitted_at"`
}

// ExamSessionState is returned to a reloading client: what has been answered
// so far and how much time is left.
type ExamSessionState struct {
	SubjectID     int64         `json:"subject_id"`
	StudentID     int           `json:"student_id"`
	State         string        `json:"state"`
	Answers       map[int64]int `json:"answers"`
	AnsweredCount int           `json:"answered_count"`
	QuestionCount int           `json:"question_count"`
	TimeRemaining int           `json:"time_remaining"`
	StartedAt     time.Time     `json:"started_at"`
}

// StartExamResponse is the payload returned when a session starts.
type StartExamResponse struct {
	SubjectID     int64                `json:"subject_id"`
	SubjectName   string               `json:"subject_name"`
	Questions     []QuestionForStudent `json:"questions"`
	TimeRemaining int                  `json:"time_remaining"`
	StartedAt     time.Time            `json:"started_at"`
}

// SetAnswerRequest is the payload for recording one answer.
type SetAnswerRequest struct {
	QuestionID  int64 `json:"question_id" binding:"required"`
	OptionIndex *int  `json:"option_index" binding:"required,min=0,max=3"`
}
