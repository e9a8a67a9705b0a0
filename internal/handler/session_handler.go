package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/middleware"
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/response"
	"github.com/stemsi/exprep-backend/internal/service"
	"github.com/stemsi/exprep-backend/internal/validator"
)

// SessionHandler handles exam and practice sessions.
type SessionHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "session_handler").Logger(),
	}
}

// StartExam godoc
// POST /api/v1/sessions/exam
// Builds a 30-question timed exam. An empty body draws an unseeded paper.
func (h *SessionHandler) StartExam(c *gin.Context) {
	var req model.StartExamRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	paper, err := h.sessionService.StartExam(c.Request.Context(), middleware.GetLearner(c), req)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to start exam")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, paper)
}

// StartPractice godoc
// POST /api/v1/sessions/practice
func (h *SessionHandler) StartPractice(c *gin.Context) {
	var req model.StartPracticeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.sessionService.StartPractice(c.Request.Context(), middleware.GetLearner(c), req)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to start practice")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, paper)
}

// GetSession godoc
// GET /api/v1/sessions/:id
// Returns the paper of a session that has not been submitted yet.
func (h *SessionHandler) GetSession(c *gin.Context) {
	paper, err := h.sessionService.Get(c.Request.Context(), middleware.GetLearner(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, paper)
}

// Submit godoc
// POST /api/v1/sessions/:id/submit
// Grades the answers, records progress and returns the review.
func (h *SessionHandler) Submit(c *gin.Context) {
	var req model.SubmitSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidAnswer, fields)
		return
	}

	review, err := h.sessionService.Submit(c.Request.Context(), middleware.GetLearner(c), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, review)
}

// Abandon godoc
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) Abandon(c *gin.Context) {
	if err := h.sessionService.Abandon(c.Request.Context(), middleware.GetLearner(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

func (h *SessionHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSessionNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}
	h.log.Error().Err(err).Str("session_id", c.Param("id")).Msg("Session request failed")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
