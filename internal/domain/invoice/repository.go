package invoice

import (
	"context"
	"time"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain"
)

// Filter selects invoices for list queries.
type Filter struct {
	CustomerID      *id.ID
	Status          Status
	OutstandingOnly bool
	DueBefore       *time.Time
	Limit           int
	Offset          int
}

// Repository defines persistence operations for invoices.
type Repository interface {
	// Create inserts an invoice.
	Create(ctx context.Context, inv *Invoice) error

	// GetByID retrieves an invoice.
	GetByID(ctx context.Context, invID id.ID) (*Invoice, error)

	// Exists checks whether an invoice exists (weak reference resolution).
	Exists(ctx context.Context, invID id.ID) (bool, error)

	// ApplyPayment atomically increases the paid amount with optimistic
	// locking; overpayment is rejected as a business rule violation.
	ApplyPayment(ctx context.Context, invID id.ID, amount types.Money, at time.Time) (*Invoice, error)

	// RevertPayment undoes a previously applied payment (administrative
	// override path only).
	RevertPayment(ctx context.Context, invID id.ID, amount types.Money, at time.Time) (*Invoice, error)

	// List retrieves invoices matching the filter.
	List(ctx context.Context, filter Filter) (domain.ListResult[*Invoice], error)
}
