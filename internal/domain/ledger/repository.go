package ledger

import (
	"context"
	"time"

	"tillbook/internal/core/id"
	"tillbook/internal/domain"
)

// Filter selects transactions for list queries. Any subset of fields may be
// set; zero values mean "no constraint".
type Filter struct {
	// CodeContains matches the code case-insensitively.
	CodeContains string

	Type     Type
	Status   Status
	Category Category

	// Date range on transaction_date (inclusive).
	DateFrom *time.Time
	DateTo   *time.Time

	CustomerID *id.ID
	PartnerID  *id.ID
	InvoiceID  *id.ID
	ShiftID    *id.ID

	// CreatedBy filters by user reference.
	CreatedBy string

	// OrderBy defaults to "-transaction_date".
	OrderBy string

	Limit  int
	Offset int
}

// Repository defines persistence operations for ledger transactions.
type Repository interface {
	// Create inserts a transaction. A code collision surfaces as
	// apperror.CodeDuplicateCode; the caller must request a fresh code.
	Create(ctx context.Context, tx *Transaction) error

	// GetByID retrieves a transaction.
	GetByID(ctx context.Context, txID id.ID) (*Transaction, error)

	// UpdateMutable updates non-identity fields (notes, due date) with
	// optimistic locking. References and code never change after creation.
	UpdateMutable(ctx context.Context, tx *Transaction) error

	// TransitionStatus atomically moves a pending transaction to a terminal
	// status and returns the resulting state. Concurrent attempts leave
	// exactly one winner; a repeat of an already-applied transition returns
	// the current state without error, any other attempt from a terminal
	// state fails with apperror.CodeInvalidStateTransition.
	// The bool result reports whether this call performed the change.
	TransitionStatus(ctx context.Context, txID id.ID, next Status, at time.Time) (*Transaction, bool, error)

	// Delete removes a transaction (administrative override only).
	Delete(ctx context.Context, txID id.ID) error

	// List retrieves transactions matching the filter,
	// ordered by transaction_date descending by default.
	List(ctx context.Context, filter Filter) (domain.ListResult[*Transaction], error)

	// ListByShift returns all transactions recorded against a shift,
	// regardless of status. Used by the reconciliation engine.
	ListByShift(ctx context.Context, shiftID id.ID) ([]*Transaction, error)
}
