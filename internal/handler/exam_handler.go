package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openexam/cbe-backend/internal/examcore"
	"github.com/openexam/cbe-backend/internal/middleware"
	"github.com/openexam/cbe-backend/internal/model"
	"github.com/openexam/cbe-backend/internal/response"
	"github.com/openexam/cbe-backend/internal/service"
	"github.com/openexam/cbe-backend/internal/validator"
)

// ExamHandler handles the student exam session endpoints.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// Start godoc
// POST /api/v1/student/exams/:subject_id/start
// Starts a timed session for the subject. Any unsubmitted previous session
// is discarded.
func (h *ExamHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	subjectID, err := strconv.ParseInt(c.Param("subject_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	started, err := h.examService.StartExam(c.Request.Context(), subjectID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubjectNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrSubjectNotFound)
		case errors.Is(err, service.ErrNoQuestionsAvailable):
			response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, started)
}

// SetAnswer godoc
// POST /api/v1/student/exams/:subject_id/answers
// Records one answer in the live session's ledger.
func (h *ExamHandler) SetAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	subjectID, err := strconv.ParseInt(c.Param("subject_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SetAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	err = h.examService.RecordAnswer(subjectID, claims.UserID, req.QuestionID, *req.OptionIndex)
	if err != nil {
		switch {
		case errors.Is(err, examcore.ErrNoActiveSession):
			response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		case errors.Is(err, examcore.ErrInvalidOption):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidOption)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// GetState godoc
// GET /api/v1/student/exams/:subject_id/state
// Returns the live session view for a reloading client.
func (h *ExamHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	subjectID, err := strconv.ParseInt(c.Param("subject_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.examService.GetState(subjectID, claims.UserID)
	if err != nil {
		if errors.Is(err, examcore.ErrNoActiveSession) {
			response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// Submit godoc
// POST /api/v1/student/exams/:subject_id/submit
// Submits the session. A session in Failed is retried with its frozen
// snapshot; a duplicate submit while one is in flight reports in_flight.
func (h *ExamHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	subjectID, err := strconv.ParseInt(c.Param("subject_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	outcome, err := h.examService.Submit(c.Request.Context(), subjectID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, examcore.ErrNoActiveSession):
			response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		case errors.Is(err, service.ErrSubmissionFailed):
			response.Fail(c, http.StatusBadGateway, response.ErrSubmissionFailed)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, outcome)
}
