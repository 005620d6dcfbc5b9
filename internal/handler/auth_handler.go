package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/response"
	"github.com/stemsi/exstem-cbt/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Anonymous godoc
// POST /api/v1/auth/anonymous
// Issues a token for a new anonymous candidate.
func (h *AuthHandler) Anonymous(c *gin.Context) {
	token, candidateID, err := h.authService.IssueCandidateToken()
	if err != nil {
		h.log.Error().Err(err).Msg("issue candidate token failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"token":        token,
		"candidate_id": candidateID,
	})
}
