package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/exprep-backend/internal/middleware"
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/response"
	"github.com/stemsi/exprep-backend/internal/service"
	"github.com/stemsi/exprep-backend/internal/validator"
)

const defaultDueLimit = 20

// FlashcardHandler serves the spaced-repetition deck.
type FlashcardHandler struct {
	flashcardService *service.FlashcardService
}

// NewFlashcardHandler creates a new FlashcardHandler.
func NewFlashcardHandler(flashcardService *service.FlashcardService) *FlashcardHandler {
	return &FlashcardHandler{flashcardService: flashcardService}
}

// Due godoc
// GET /api/v1/flashcards/due?limit=20
// limit=0 returns every reviewable card.
func (h *FlashcardHandler) Due(c *gin.Context) {
	var q model.DueFlashcardsQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	limit := defaultDueLimit
	if q.Limit != nil {
		limit = *q.Limit
	}

	learner := middleware.GetLearner(c)
	cards := h.flashcardService.Due(c.Request.Context(), learner.ID, limit)
	response.Success(c, http.StatusOK, gin.H{"cards": cards})
}

// Rate godoc
// POST /api/v1/flashcards/:question_id/rate
func (h *FlashcardHandler) Rate(c *gin.Context) {
	var req model.RateFlashcardRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	learner := middleware.GetLearner(c)
	entry, err := h.flashcardService.Rate(c.Request.Context(), learner.ID, c.Param("question_id"), req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownQuestion):
			response.Fail(c, http.StatusNotFound, response.ErrQuestionNotFound)
			return
		case errors.Is(err, service.ErrInvalidRating):
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"entry": entry})
}

// Reset godoc
// DELETE /api/v1/flashcards/:question_id
func (h *FlashcardHandler) Reset(c *gin.Context) {
	h.reset(c, c.Param("question_id"))
}

// ResetAll godoc
// DELETE /api/v1/flashcards
func (h *FlashcardHandler) ResetAll(c *gin.Context) {
	h.reset(c, "")
}

// Stats godoc
// GET /api/v1/flashcards/stats
func (h *FlashcardHandler) Stats(c *gin.Context) {
	learner := middleware.GetLearner(c)
	response.Success(c, http.StatusOK, h.flashcardService.Stats(c.Request.Context(), learner.ID))
}

func (h *FlashcardHandler) reset(c *gin.Context, questionID string) {
	learner := middleware.GetLearner(c)
	if err := h.flashcardService.Reset(c.Request.Context(), learner.ID, questionID); err != nil {
		if errors.Is(err, service.ErrUnknownQuestion) {
			response.Fail(c, http.StatusNotFound, response.ErrQuestionNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
