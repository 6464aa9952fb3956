// Package shift provides the cash-drawer session: a bounded period of work
// by one employee at one warehouse, owning the transactions recorded while
// it is open.
package shift

import (
	"context"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// Status is the shift lifecycle state: (none) -> open -> closed.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Shift is one cash-drawer session. At most one open shift exists per
// (employee, warehouse) pair at any instant. Shifts are created on open,
// mutated once on close, and never deleted while transactions reference them.
type Shift struct {
	ID id.ID `db:"id" json:"id"`

	EmployeeID  id.ID `db:"employee_id" json:"employeeId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	StartTime time.Time  `db:"start_time" json:"startTime"`
	EndTime   *time.Time `db:"end_time" json:"endTime,omitempty"`

	OpeningCash types.Money  `db:"opening_cash" json:"openingCash"`
	ClosingCash *types.Money `db:"closing_cash" json:"closingCash,omitempty"`

	Status Status `db:"status" json:"status"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewShift creates an open shift starting now.
func NewShift(employeeID, warehouseID id.ID, openingCash types.Money) *Shift {
	now := time.Now().UTC()
	return &Shift{
		ID:          id.New(),
		EmployeeID:  employeeID,
		WarehouseID: warehouseID,
		StartTime:   now,
		OpeningCash: openingCash,
		Status:      StatusOpen,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks internal invariants.
func (s *Shift) Validate(ctx context.Context) error {
	if id.IsNil(s.EmployeeID) {
		return apperror.NewValidation("employee is required").
			WithDetail("field", "employeeId")
	}
	if id.IsNil(s.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if s.OpeningCash.IsNegative() {
		return apperror.NewValidation("opening cash must not be negative").
			WithDetail("field", "openingCash")
	}
	return nil
}

// IsOpen reports whether the shift still accepts transactions.
func (s *Shift) IsOpen() bool {
	return s.Status == StatusOpen
}

// Close transitions the shift to closed in place. EndTime is set iff
// status is closed.
func (s *Shift) Close(closingCash types.Money, at time.Time) error {
	if s.Status != StatusOpen {
		return apperror.NewShiftNotOpen(s.ID.String())
	}
	if closingCash.IsNegative() {
		return apperror.NewValidation("closing cash must not be negative").
			WithDetail("field", "closingCash")
	}

	utc := at.UTC()
	s.Status = StatusClosed
	s.EndTime = &utc
	s.ClosingCash = &closingCash
	s.UpdatedAt = utc
	s.Version++
	return nil
}
