package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/invoice"
	"tillbook/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler serves invoice endpoints.
type InvoiceHandler struct {
	*BaseHandler
	service *invoice.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.Error(c, err)
		return
	}

	customerID, err := id.Parse(req.CustomerID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid customer id").WithDetail("value", req.CustomerID))
		return
	}
	total, err := types.NewMoneyFromString(req.Total)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid total format").
			WithDetail("field", "total").
			WithDetail("value", req.Total))
		return
	}

	inv, err := h.service.Create(c.Request.Context(), req.Number, customerID, req.IssueDate, req.DueDate, total)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, inv)
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	inv, err := h.service.GetByID(c.Request.Context(), invID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, inv)
}

// List handles GET /invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	var query dto.InvoiceListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := invoice.Filter{
		Status:          invoice.Status(query.Status),
		OutstandingOnly: query.OutstandingOnly,
		DueBefore:       query.DueBefore,
		Limit:           query.Limit,
		Offset:          query.Offset,
	}
	if query.CustomerID != nil && *query.CustomerID != "" {
		customerID, err := id.Parse(*query.CustomerID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid customer id").WithDetail("value", *query.CustomerID))
			return
		}
		filter.CustomerID = &customerID
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
