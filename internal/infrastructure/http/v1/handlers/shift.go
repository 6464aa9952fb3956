package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/shift"
	"tillbook/internal/infrastructure/http/v1/dto"
)

// ShiftHandler serves shift lifecycle endpoints.
type ShiftHandler struct {
	*BaseHandler
	manager *shift.Manager
}

// NewShiftHandler creates a new shift handler.
func NewShiftHandler(base *BaseHandler, manager *shift.Manager) *ShiftHandler {
	return &ShiftHandler{
		BaseHandler: base,
		manager:     manager,
	}
}

// Open handles POST /shifts.
func (h *ShiftHandler) Open(c *gin.Context) {
	var req dto.OpenShiftRequest
	if !h.BindJSON(c, &req) {
		return
	}

	employeeID, warehouseID, openingCash, err := req.Parse()
	if err != nil {
		h.Error(c, err)
		return
	}

	s, err := h.manager.Open(c.Request.Context(), employeeID, warehouseID, openingCash)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, s)
}

// Close handles POST /shifts/:id/close.
func (h *ShiftHandler) Close(c *gin.Context) {
	shiftID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.CloseShiftRequest
	if !h.BindJSON(c, &req) {
		return
	}

	closingCash, err := req.Parse()
	if err != nil {
		h.Error(c, err)
		return
	}

	s, err := h.manager.Close(c.Request.Context(), shiftID, closingCash)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, s)
}

// Get handles GET /shifts/:id.
func (h *ShiftHandler) Get(c *gin.Context) {
	shiftID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	s, err := h.manager.GetByID(c.Request.Context(), shiftID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, s)
}

// GetOpen handles GET /shifts/open?employeeId=&warehouseId=.
func (h *ShiftHandler) GetOpen(c *gin.Context) {
	employeeID, err := id.Parse(c.Query("employeeId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid employee id"))
		return
	}
	warehouseID, err := id.Parse(c.Query("warehouseId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouse id"))
		return
	}

	s, err := h.manager.GetOpen(c.Request.Context(), employeeID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, s)
}

// List handles GET /shifts.
func (h *ShiftHandler) List(c *gin.Context) {
	var query dto.ShiftListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter, err := query.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.manager.List(c.Request.Context(), filter)
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
