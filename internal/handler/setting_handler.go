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

type SettingHandler struct {
	settingService *service.SettingService
}

func NewSettingHandler(settingService *service.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

// GetSettings godoc
// GET /api/v1/settings
func (h *SettingHandler) GetSettings(c *gin.Context) {
	learner := middleware.GetLearner(c)
	settings := h.settingService.Get(c.Request.Context(), learner.ID)
	response.Success(c, http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings godoc
// PATCH /api/v1/settings
// Only the fields present in the body change.
func (h *SettingHandler) UpdateSettings(c *gin.Context) {
	var req model.UpdateSettingsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	learner := middleware.GetLearner(c)
	settings, err := h.settingService.Update(c.Request.Context(), learner.ID, req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"settings": settings})
}
