package dto

import (
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/shift"
)

// OpenShiftRequest opens a cash-drawer session.
type OpenShiftRequest struct {
	EmployeeID  string `json:"employeeId" binding:"required"`
	WarehouseID string `json:"warehouseId" binding:"required"`
	OpeningCash string `json:"openingCash" binding:"required"`
}

// Parse converts string fields to domain types.
func (r OpenShiftRequest) Parse() (employeeID, warehouseID id.ID, openingCash types.Money, err error) {
	if employeeID, err = id.Parse(r.EmployeeID); err != nil {
		err = apperror.NewValidation("invalid employee id").WithDetail("value", r.EmployeeID)
		return
	}
	if warehouseID, err = id.Parse(r.WarehouseID); err != nil {
		err = apperror.NewValidation("invalid warehouse id").WithDetail("value", r.WarehouseID)
		return
	}
	if openingCash, err = types.NewMoneyFromString(r.OpeningCash); err != nil {
		err = apperror.NewValidation("invalid opening cash format").
			WithDetail("field", "openingCash").
			WithDetail("value", r.OpeningCash)
	}
	return
}

// CloseShiftRequest closes a shift with the counted drawer amount.
type CloseShiftRequest struct {
	ClosingCash string `json:"closingCash" binding:"required"`
}

// Parse converts the counted amount to Money.
func (r CloseShiftRequest) Parse() (types.Money, error) {
	closingCash, err := types.NewMoneyFromString(r.ClosingCash)
	if err != nil {
		return types.ZeroMoney(), apperror.NewValidation("invalid closing cash format").
			WithDetail("field", "closingCash").
			WithDetail("value", r.ClosingCash)
	}
	return closingCash, nil
}

// ShiftListQuery holds shift list filter query parameters.
type ShiftListQuery struct {
	EmployeeID  *string    `form:"employeeId"`
	WarehouseID *string    `form:"warehouseId"`
	Status      string     `form:"status"`
	FromDate    *time.Time `form:"fromDate" time_format:"2006-01-02"`
	ToDate      *time.Time `form:"toDate" time_format:"2006-01-02"`
	Limit       int        `form:"limit"`
	Offset      int        `form:"offset"`
}

// ToFilter converts query parameters to a repository filter.
func (q ShiftListQuery) ToFilter() (shift.Filter, error) {
	f := shift.Filter{
		Status:   shift.Status(q.Status),
		FromDate: q.FromDate,
		ToDate:   q.ToDate,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}

	var err error
	if f.EmployeeID, err = parseOptionalID("employeeId", q.EmployeeID); err != nil {
		return shift.Filter{}, err
	}
	if f.WarehouseID, err = parseOptionalID("warehouseId", q.WarehouseID); err != nil {
		return shift.Filter{}, err
	}
	return f, nil
}
