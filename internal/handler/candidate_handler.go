package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-cbt/internal/middleware"
	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/response"
	"github.com/stemsi/exstem-cbt/internal/service"
	"github.com/stemsi/exstem-cbt/internal/validator"
)

// CandidateHandler serves the candidate's own profile and result history.
type CandidateHandler struct {
	profileService *service.ProfileService
	examService    *service.ExamService
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(profileService *service.ProfileService, examService *service.ExamService) *CandidateHandler {
	return &CandidateHandler{
		profileService: profileService,
		examService:    examService,
	}
}

// GetProfile godoc
// GET /api/v1/candidate/profile
func (h *CandidateHandler) GetProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	p, err := h.profileService.Get(c.Request.Context(), claims.CandidateID)
	if err != nil {
		failErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile": p})
}

// UpdateProfile godoc
// PUT /api/v1/candidate/profile
func (h *CandidateHandler) UpdateProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.UpdateProfileRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	p, err := h.profileService.UpdateName(c.Request.Context(), claims.CandidateID, req.Name)
	if err != nil {
		failErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile": p})
}

// ListResults godoc
// GET /api/v1/candidate/results?limit=20
// Returns the candidate's stored results, newest first.
func (h *CandidateHandler) ListResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if limit < 0 || limit > 100 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	results, err := h.examService.History(c.Request.Context(), claims.CandidateID, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	if results == nil {
		results = []model.ResultRecord{}
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}
