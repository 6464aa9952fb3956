package handlers

import (
	"github.com/gin-gonic/gin"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/aging"
	"tillbook/internal/domain/reconciliation"
	"tillbook/internal/infrastructure/http/v1/dto"
)

// ReportsHandler serves reconciliation and aging report endpoints.
type ReportsHandler struct {
	*BaseHandler
	reconciliation *reconciliation.Service
	aging          *aging.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, recon *reconciliation.Service, agingSvc *aging.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler:    base,
		reconciliation: recon,
		aging:          agingSvc,
	}
}

// ShiftSummary handles GET /reports/shift-summary/:id.
func (h *ReportsHandler) ShiftSummary(c *gin.Context) {
	shiftID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	summary, err := h.reconciliation.Summarize(c.Request.Context(), shiftID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// Aging handles GET /reports/aging.
func (h *ReportsHandler) Aging(c *gin.Context) {
	var query dto.AgingQuery
	if !h.BindQuery(c, &query) {
		return
	}

	report, err := h.aging.AgeReceivables(c.Request.Context(), query.AsOfOrNow(), query.ToOptions())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}
