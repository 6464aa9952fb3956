package dto

import (
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/ledger"
	"tillbook/internal/domain/registers/stock"
)

// StockLineRequest is one stock movement implied by a transaction.
type StockLineRequest struct {
	ProductID   string  `json:"productId" binding:"required"`
	WarehouseID string  `json:"warehouseId" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
}

// CreateTransactionRequest for recording a ledger transaction.
type CreateTransactionRequest struct {
	Type     string `json:"type" binding:"required"`
	Method   string `json:"method" binding:"required"`
	Category string `json:"category" binding:"required"`
	Amount   string `json:"amount" binding:"required"`

	Code string `json:"code"`

	TransactionDate *time.Time `json:"transactionDate"`
	DueDate         *time.Time `json:"dueDate"`

	CustomerID *string `json:"customerId"`
	PartnerID  *string `json:"partnerId"`
	InvoiceID  *string `json:"invoiceId"`
	ShiftID    *string `json:"shiftId"`

	Notes string `json:"notes"`

	Complete bool `json:"complete"`

	StockLines []StockLineRequest `json:"stockLines"`
}

// ToInput converts the request to typed service input.
func (r CreateTransactionRequest) ToInput() (ledger.CreateInput, error) {
	amount, err := types.NewMoneyFromString(r.Amount)
	if err != nil {
		return ledger.CreateInput{}, apperror.NewValidation("invalid amount format").
			WithDetail("field", "amount").
			WithDetail("value", r.Amount)
	}

	input := ledger.CreateInput{
		Type:            ledger.Type(r.Type),
		Method:          ledger.Method(r.Method),
		Category:        ledger.Category(r.Category),
		Amount:          amount,
		Code:            r.Code,
		TransactionDate: r.TransactionDate,
		DueDate:         r.DueDate,
		Notes:           r.Notes,
		Complete:        r.Complete,
	}

	if input.CustomerID, err = parseOptionalID("customerId", r.CustomerID); err != nil {
		return ledger.CreateInput{}, err
	}
	if input.PartnerID, err = parseOptionalID("partnerId", r.PartnerID); err != nil {
		return ledger.CreateInput{}, err
	}
	if input.InvoiceID, err = parseOptionalID("invoiceId", r.InvoiceID); err != nil {
		return ledger.CreateInput{}, err
	}
	if input.ShiftID, err = parseOptionalID("shiftId", r.ShiftID); err != nil {
		return ledger.CreateInput{}, err
	}

	for _, l := range r.StockLines {
		productID, err := id.Parse(l.ProductID)
		if err != nil {
			return ledger.CreateInput{}, apperror.NewValidation("invalid product id").
				WithDetail("value", l.ProductID)
		}
		warehouseID, err := id.Parse(l.WarehouseID)
		if err != nil {
			return ledger.CreateInput{}, apperror.NewValidation("invalid warehouse id").
				WithDetail("value", l.WarehouseID)
		}
		input.StockLines = append(input.StockLines, stock.Line{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Quantity:    types.NewQuantityFromFloat64(l.Quantity),
		})
	}

	return input, nil
}

// UpdateTransactionRequest for changing mutable fields.
type UpdateTransactionRequest struct {
	Notes   *string    `json:"notes"`
	DueDate *time.Time `json:"dueDate"`
}

// ToInput converts the request to typed service input.
func (r UpdateTransactionRequest) ToInput() ledger.UpdateInput {
	return ledger.UpdateInput{
		Notes:   r.Notes,
		DueDate: r.DueDate,
	}
}

// TransitionRequest moves a transaction to a terminal status.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// DeleteTransactionRequest carries the mandatory audit reason.
type DeleteTransactionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// TransactionListQuery holds list filter query parameters.
type TransactionListQuery struct {
	Code     string `form:"code"`
	Type     string `form:"type"`
	Status   string `form:"status"`
	Category string `form:"category"`

	DateFrom *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo   *time.Time `form:"dateTo" time_format:"2006-01-02"`

	CustomerID *string `form:"customerId"`
	PartnerID  *string `form:"partnerId"`
	InvoiceID  *string `form:"invoiceId"`
	ShiftID    *string `form:"shiftId"`

	CreatedBy string `form:"createdBy"`
	OrderBy   string `form:"orderBy"`

	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// ToFilter converts query parameters to a repository filter.
func (q TransactionListQuery) ToFilter() (ledger.Filter, error) {
	f := ledger.Filter{
		CodeContains: q.Code,
		Type:         ledger.Type(q.Type),
		Status:       ledger.Status(q.Status),
		Category:     ledger.Category(q.Category),
		DateFrom:     q.DateFrom,
		DateTo:       q.DateTo,
		CreatedBy:    q.CreatedBy,
		OrderBy:      q.OrderBy,
		Limit:        q.Limit,
		Offset:       q.Offset,
	}

	var err error
	if f.CustomerID, err = parseOptionalID("customerId", q.CustomerID); err != nil {
		return ledger.Filter{}, err
	}
	if f.PartnerID, err = parseOptionalID("partnerId", q.PartnerID); err != nil {
		return ledger.Filter{}, err
	}
	if f.InvoiceID, err = parseOptionalID("invoiceId", q.InvoiceID); err != nil {
		return ledger.Filter{}, err
	}
	if f.ShiftID, err = parseOptionalID("shiftId", q.ShiftID); err != nil {
		return ledger.Filter{}, err
	}
	return f, nil
}

func parseOptionalID(field string, s *string) (*id.ID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := id.Parse(*s)
	if err != nil {
		return nil, apperror.NewValidation("invalid id format").
			WithDetail("field", field).
			WithDetail("value", *s)
	}
	return &parsed, nil
}
