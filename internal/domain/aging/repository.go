package aging

import (
	"context"
	"time"
)

// Repository reads outstanding receivables for aging.
type Repository interface {
	// ListOutstanding returns every unpaid invoice slice joined with its
	// customer, as of the given date. Invoices issued after asOf are
	// excluded. Ordered by customer code, then due date.
	ListOutstanding(ctx context.Context, asOf time.Time) ([]OutstandingItem, error)
}
