package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/ledger"
	"tillbook/internal/infrastructure/http/v1/dto"
)

// LedgerHandler serves transaction endpoints.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
	audit   ledger.AuditReader
}

// NewLedgerHandler creates a new ledger handler. audit may be nil when no
// audit backend is configured.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service, audit ledger.AuditReader) *LedgerHandler {
	return &LedgerHandler{
		BaseHandler: base,
		service:     service,
		audit:       audit,
	}
}

// Create handles POST /transactions.
func (h *LedgerHandler) Create(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	t, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, t)
}

// Get handles GET /transactions/:id.
func (h *LedgerHandler) Get(c *gin.Context) {
	txID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	t, err := h.service.GetByID(c.Request.Context(), txID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, t)
}

// List handles GET /transactions.
func (h *LedgerHandler) List(c *gin.Context) {
	var query dto.TransactionListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter, err := query.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Update handles PATCH /transactions/:id.
func (h *LedgerHandler) Update(c *gin.Context) {
	txID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.Update(c.Request.Context(), txID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, t)
}

// Transition handles POST /transactions/:id/transition.
func (h *LedgerHandler) Transition(c *gin.Context) {
	txID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.Transition(c.Request.Context(), txID, ledger.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, t)
}

// Delete handles DELETE /transactions/:id - administrative override.
func (h *LedgerHandler) Delete(c *gin.Context) {
	txID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.DeleteTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Delete(c.Request.Context(), txID, req.Reason); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// DeletionHistory handles GET /transactions/:id/audit - administrative
// view of what was removed and why.
func (h *LedgerHandler) DeletionHistory(c *gin.Context) {
	txID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if h.audit == nil {
		h.OK(c, []ledger.DeletionEntry{})
		return
	}

	limit := h.ParseIntQuery(c, "limit", 20)
	entries, err := h.audit.GetDeletionHistory(c.Request.Context(), txID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, entries)
}
