package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-cbt/internal/middleware"
	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/response"
	"github.com/stemsi/exstem-cbt/internal/service"
	"github.com/stemsi/exstem-cbt/internal/validator"
)

// ExamHandler exposes exam attempts over HTTP.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// ListDepartments godoc
// GET /api/v1/exam/departments
func (h *ExamHandler) ListDepartments(c *gin.Context) {
	cfg := h.examService.Config()
	response.Success(c, http.StatusOK, gin.H{
		"departments":        h.examService.Departments(),
		"total_questions":    cfg.TotalExpected,
		"time_limit_seconds": cfg.TimeLimitSeconds,
	})
}

// StartAttempt godoc
// POST /api/v1/exam/attempts
// Builds a fresh exam for the candidate and starts its clock.
func (h *ExamHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	a, err := h.examService.Start(c.Request.Context(), claims.CandidateID, req.Name, req.Department)
	if err != nil {
		failErr(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"attempt": h.examService.Snapshot(a)})
}

// GetAttempt godoc
// GET /api/v1/exam/attempts/:id
func (h *ExamHandler) GetAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := attemptID(c)
	if !ok {
		return
	}

	st, err := h.examService.State(claims.CandidateID, id)
	if err != nil {
		failErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": st})
}

// SaveAnswer godoc
// PUT /api/v1/exam/attempts/:id/answers
func (h *ExamHandler) SaveAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := attemptID(c)
	if !ok {
		return
	}

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	st, err := h.examService.Answer(claims.CandidateID, id, req.QuestionID, req.Option)
	if err != nil {
		failErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": st})
}

// Navigate godoc
// POST /api/v1/exam/attempts/:id/navigate
func (h *ExamHandler) Navigate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := attemptID(c)
	if !ok {
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	st, err := h.examService.Navigate(claims.CandidateID, id, req.Delta)
	if err != nil {
		failErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": st})
}

// Jump godoc
// POST /api/v1/exam/attempts/:id/jump
func (h *ExamHandler) Jump(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := attemptID(c)
	if !ok {
		return
	}

	var req model.JumpRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	st, err := h.examService.Jump(claims.CandidateID, id, *req.Index)
	if err != nil {
		failErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": st})
}

// Submit godoc
// POST /api/v1/exam/attempts/:id/submit
// Scores the attempt. Safe to repeat; every call returns the same result.
func (h *ExamHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := attemptID(c)
	if !ok {
		return
	}

	out, err := h.examService.Submit(claims.CandidateID, id)
	if err != nil {
		failErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// GetResult godoc
// GET /api/v1/exam/attempts/:id/result
func (h *ExamHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := attemptID(c)
	if !ok {
		return
	}

	out, err := h.examService.Result(claims.CandidateID, id)
	if err != nil {
		failErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// GetReport godoc
// GET /api/v1/exam/attempts/:id/report
// Returns the review listing as plain text.
func (h *ExamHandler) GetReport(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := attemptID(c)
	if !ok {
		return
	}

	text, err := h.examService.Report(claims.CandidateID, id)
	if err != nil {
		failErr(c, err)
		return
	}
	response.Text(c, http.StatusOK, text)
}
