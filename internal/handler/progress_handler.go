package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/exprep-backend/internal/middleware"
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/response"
	"github.com/stemsi/exprep-backend/internal/service"
	"github.com/stemsi/exprep-backend/internal/validator"
)

// ProgressHandler handles the dashboard, analytics and history endpoints.
type ProgressHandler struct {
	progressService *service.ProgressService
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// Dashboard godoc
// GET /api/v1/progress/dashboard
// Returns attempts, last score, readiness, streak, weak areas and deck stats.
func (h *ProgressHandler) Dashboard(c *gin.Context) {
	learner := middleware.GetLearner(c)
	response.Success(c, http.StatusOK, h.progressService.Dashboard(c.Request.Context(), learner.ID))
}

// Analytics godoc
// GET /api/v1/progress/analytics
func (h *ProgressHandler) Analytics(c *gin.Context) {
	learner := middleware.GetLearner(c)
	response.Success(c, http.StatusOK, h.progressService.Analytics(c.Request.Context(), learner.ID))
}

// History godoc
// GET /api/v1/progress/history?page=1&per_page=10
func (h *ProgressHandler) History(c *gin.Context) {
	var q model.HistoryQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	learner := middleware.GetLearner(c)
	records, pagination := h.progressService.HistoryPage(c.Request.Context(), learner.ID, q.Page, q.PerPage)
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"records": records}, pagination)
}

// Wipe godoc
// DELETE /api/v1/progress
// Deletes history, per-question stats, flashcards and the study set.
func (h *ProgressHandler) Wipe(c *gin.Context) {
	learner := middleware.GetLearner(c)
	if err := h.progressService.Wipe(c.Request.Context(), learner.ID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
