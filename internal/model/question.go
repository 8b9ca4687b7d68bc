package model

import (
	"strings"
	"time"
)

// Question represents a multiple-choice question with exactly four options.
// CorrectOption is the letter A-D; it is stored server-side only and is
// stripped from anything sent to a student during an attempt.
type Question struct {
	ID            int64     `json:"id"`
	SubjectID     int64     `json:"subject_id"`
	QuestionText  string    `json:"question_text"`
	OptionA       string    `json:"option_a"`
	OptionB       string    `json:"option_b"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectOption string    `json:"correct_option"`
	CreatedAt     time.Time `json:"created_at"`
}

// Options returns the four answer options in index order.
func (q *Question) Options() [4]string {
	return [4]string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}

// CorrectIndex maps the stored letter to its option index. Identifier and
// option normalization happens here at the model boundary, never inside the
// session core.
func (q *Question) CorrectIndex() int {
	switch strings.ToUpper(q.CorrectOption) {
	case "A":
		return 0
	case "B":
		return 1
	case "C":
		return 2
	case "D":
		return 3
	}
	return -1
}

// QuestionForStudent is a question as exposed during an attempt: no correct
// answer marker.
type QuestionForStudent struct {
	ID           int64     `json:"id"`
	QuestionText string    `json:"question_text"`
	Options      [4]string `json:"options"`
}

// AddQuestionRequest is the payload for adding a question to a subject.
type AddQuestionRequest struct {
	QuestionText  string `json:"question_text" binding:"required,min=1,max=2000"`
	OptionA       string `json:"option_a" binding:"required,max=500"`
	OptionB       string `json:"option_b" binding:"required,max=500"`
	OptionC       string `json:"option_c" binding:"required,max=500"`
	OptionD       string `json:"option_d" binding:"required,max=500"`
	CorrectOption string `json:"correct_option" binding:"required,oneof=A B C D"`
}

// UpdateQuestionRequest is the payload for updating an existing question.
type UpdateQuestionRequest struct {
	QuestionText  string `json:"question_text" binding:"required,min=1,max=2000"`
	OptionA       string `json:"option_a" binding:"required,max=500"`
	OptionB       string `json:"option_b" binding:"required,max=500"`
	OptionC       string `json:"option_c" binding:"required,max=500"`
	OptionD       string `json:"option_d" binding:"required,max=500"`
	CorrectOption string `json:"correct_option" binding:"required,oneof=A B C D"`
}
