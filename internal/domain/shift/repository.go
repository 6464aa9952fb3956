package shift

import (
	"context"
	"time"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain"
)

// Filter selects shifts for list queries.
type Filter struct {
	EmployeeID  *id.ID
	WarehouseID *id.ID
	Status      Status
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}

// Repository defines persistence operations for shifts.
type Repository interface {
	// CreateOpen inserts a new open shift. A second open shift for the same
	// (employee, warehouse) pair is rejected with apperror.CodeShiftAlreadyOpen
	// mapped from the underlying uniqueness guarantee.
	CreateOpen(ctx context.Context, s *Shift) error

	// GetByID retrieves a shift.
	GetByID(ctx context.Context, shiftID id.ID) (*Shift, error)

	// GetOpen returns the open shift for an employee at a warehouse,
	// or apperror.CodeNotFound when none exists.
	GetOpen(ctx context.Context, employeeID, warehouseID id.ID) (*Shift, error)

	// Close atomically transitions an open shift to closed, setting end time
	// and closing cash. Exactly one concurrent close wins; the rest fail
	// with apperror.CodeShiftNotOpen.
	Close(ctx context.Context, shiftID id.ID, closingCash types.Money, at time.Time) (*Shift, error)

	// List retrieves shifts matching the filter, newest first.
	List(ctx context.Context, filter Filter) (domain.ListResult[*Shift], error)
}
