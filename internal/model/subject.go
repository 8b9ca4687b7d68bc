package model

import "time"

// Subject represents an examinable subject with its timing and pass rules.
type Subject struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	PassingScore    int       `json:"passing_score"`
	QuestionCount   int       `json:"question_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateSubjectRequest is the payload for creating a subject.
type CreateSubjectRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=100"`
	Description     string `json:"description" binding:"max=500"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=480"`
	PassingScore    int    `json:"passing_score" binding:"min=0,max=100"`
}

// UpdateSubjectRequest is the payload for updating a subject.
type UpdateSubjectRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=100"`
	Description     string `json:"description" binding:"max=500"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=480"`
	PassingScore    int    `json:"passing_score" binding:"min=0,max=100"`
}
