package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/bank"
	"github.com/stemsi/exprep-backend/internal/middleware"
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/response"
	"github.com/stemsi/exprep-backend/internal/service"
	"github.com/stemsi/exprep-backend/internal/validator"
)

// BankHandler handles the question bank, authored questions and published
// versions.
type BankHandler struct {
	bankService *service.BankService
	log         zerolog.Logger
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(bankService *service.BankService, log zerolog.Logger) *BankHandler {
	return &BankHandler{
		bankService: bankService,
		log:         log.With().Str("component", "bank_handler").Logger(),
	}
}

// Summary godoc
// GET /api/v1/bank
// Returns name, version and counts of the learner's active bank.
func (h *BankHandler) Summary(c *gin.Context) {
	learner := middleware.GetLearner(c)
	response.Success(c, http.StatusOK, h.bankService.Summary(c.Request.Context(), learner.ID))
}

// Catalog godoc
// GET /api/v1/public/bank/stats
// Counts of the shared bank, without any learner's custom questions.
func (h *BankHandler) Catalog(c *gin.Context) {
	b := h.bankService.Base(c.Request.Context())
	stats := b.Stats()
	response.Success(c, http.StatusOK, model.BankSummary{
		Name:     b.Name,
		Version:  b.Version,
		Total:    stats.Total,
		ByDomain: stats.ByDomain,
		ByType:   stats.ByType,
	})
}

// Versions godoc
// GET /api/v1/bank/versions
func (h *BankHandler) Versions(c *gin.Context) {
	versions, err := h.bankService.Versions(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to list bank versions")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrRemoteUnavailable)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"versions": versions})
}

// ListCustom godoc
// GET /api/v1/bank/custom
// Authored questions are returned with their answer keys.
func (h *BankHandler) ListCustom(c *gin.Context) {
	learner := middleware.GetLearner(c)
	questions := h.bankService.CustomQuestions(c.Request.Context(), learner.ID)
	if questions == nil {
		questions = []model.Question{}
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// UpsertCustom godoc
// PUT /api/v1/bank/custom
// Requires author mode. A question with an existing id is replaced.
func (h *BankHandler) UpsertCustom(c *gin.Context) {
	var draft model.QuestionDraft
	if fields := validator.Bind(c, &draft); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, fields)
		return
	}

	learner := middleware.GetLearner(c)
	q, err := h.bankService.UpsertCustom(c.Request.Context(), learner.ID, draft)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// ImportCustom godoc
// POST /api/v1/bank/custom/import
// All questions are saved or none are.
func (h *BankHandler) ImportCustom(c *gin.Context) {
	var req model.ImportQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, fields)
		return
	}

	learner := middleware.GetLearner(c)
	n, err := h.bankService.ImportCustom(c.Request.Context(), learner.ID, req.Questions)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"imported": n})
}

// DeleteCustom godoc
// DELETE /api/v1/bank/custom/:question_id
func (h *BankHandler) DeleteCustom(c *gin.Context) {
	learner := middleware.GetLearner(c)
	if err := h.bankService.DeleteCustom(c.Request.Context(), learner.ID, c.Param("question_id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Publish godoc
// POST /api/v1/instructor/bank/versions
// Stores a full question set as a new remote version.
func (h *BankHandler) Publish(c *gin.Context) {
	var req model.PublishBankRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, fields)
		return
	}

	v, err := h.bankService.Publish(c.Request.Context(), middleware.GetLearner(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"version": v})
}

func (h *BankHandler) fail(c *gin.Context, err error) {
	var verr *bank.ValidationError
	switch {
	case errors.As(err, &verr):
		response.FailWithProblems(c, http.StatusUnprocessableEntity, response.ErrInvalidQuestion, verr.Problems)
	case errors.Is(err, service.ErrAuthorModeOff):
		response.Fail(c, http.StatusForbidden, response.ErrAuthorModeOff)
	case errors.Is(err, service.ErrUnknownQuestion):
		response.Fail(c, http.StatusNotFound, response.ErrQuestionNotFound)
	case errors.Is(err, service.ErrVersionExists):
		response.Fail(c, http.StatusConflict, response.ErrBankVersionExists)
	case errors.Is(err, service.ErrRemoteUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrRemoteUnavailable)
	default:
		h.log.Error().Err(err).Msg("Bank request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
