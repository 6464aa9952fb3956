package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/registers/stock"
)

// StockHandler serves stock register read endpoints. Writes happen only
// through ledger transactions.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetBalance handles GET /registers/stock/balance?productId=&warehouseId=.
func (h *StockHandler) GetBalance(c *gin.Context) {
	productID, err := id.Parse(c.Query("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}
	warehouseID, err := id.Parse(c.Query("warehouseId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouse id"))
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), productID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, balance)
}

// GetWarehouseStock handles GET /registers/stock/balances/:warehouseId.
func (h *StockHandler) GetWarehouseStock(c *gin.Context) {
	warehouseID, err := id.Parse(c.Param("warehouseId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouse id"))
		return
	}

	balances, err := h.service.GetWarehouseStock(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, balances)
}

// GetMovements handles GET /registers/stock/movements/:productId.
func (h *StockHandler) GetMovements(c *gin.Context) {
	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	filter := stock.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if warehouse := c.Query("warehouseId"); warehouse != "" {
		warehouseID, err := id.Parse(warehouse)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouse id"))
			return
		}
		filter.WarehouseID = &warehouseID
	}
	if cause := c.Query("cause"); cause != "" {
		cv := stock.Cause(cause)
		filter.Cause = &cv
	}
	if from := c.Query("fromDate"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid fromDate format"))
			return
		}
		filter.FromDate = &t
	}
	if to := c.Query("toDate"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid toDate format"))
			return
		}
		filter.ToDate = &t
	}

	movements, err := h.service.GetMovementHistory(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, movements)
}
