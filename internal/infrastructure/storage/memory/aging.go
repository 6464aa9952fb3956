package memory

import (
	"context"
	"sort"
	"time"

	"tillbook/internal/domain/aging"
)

// AgingRepo implements aging.Repository on the store.
type AgingRepo struct {
	store *Store
}

func NewAgingRepo(store *Store) *AgingRepo {
	return &AgingRepo{store: store}
}

func (r *AgingRepo) ListOutstanding(ctx context.Context, asOf time.Time) ([]aging.OutstandingItem, error) {
	s := r.store
	s.mu.RLock()
	var items []aging.OutstandingItem
	for _, inv := range s.invoices {
		if inv.IssueDate.After(asOf) {
			continue
		}
		outstanding := inv.Outstanding()
		if !outstanding.IsPositive() {
			continue
		}
		items = append(items, aging.OutstandingItem{
			CustomerID:  inv.CustomerID,
			InvoiceID:   inv.ID,
			DueDate:     inv.DueDate,
			Outstanding: outstanding,
		})
	}
	s.mu.RUnlock()

	// Join customer attributes outside the store lock; the catalog repo
	// has its own.
	for i := range items {
		cust, err := s.Customers.GetByID(ctx, items[i].CustomerID)
		if err != nil {
			continue
		}
		items[i].CustomerCode = cust.Code
		items[i].CustomerName = cust.Name
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].CustomerCode != items[j].CustomerCode {
			return items[i].CustomerCode < items[j].CustomerCode
		}
		a, b := items[i].DueDate, items[j].DueDate
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	return items, nil
}
