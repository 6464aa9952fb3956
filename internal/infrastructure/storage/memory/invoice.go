package memory

import (
	"context"
	"sort"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain"
	"tillbook/internal/domain/invoice"
)

// InvoiceRepo implements invoice.Repository on the store.
type InvoiceRepo struct {
	store *Store
}

func NewInvoiceRepo(store *Store) *InvoiceRepo {
	return &InvoiceRepo{store: store}
}

func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID]; exists {
		return apperror.NewConflict("invoice already exists")
	}
	cp := *inv
	s.invoices[inv.ID] = &cp
	return nil
}

func (r *InvoiceRepo) GetByID(ctx context.Context, invID id.ID) (*invoice.Invoice, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[invID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invID)
	}
	cp := *inv
	return &cp, nil
}

func (r *InvoiceRepo) Exists(ctx context.Context, invID id.ID) (bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.invoices[invID]
	return ok, nil
}

func (r *InvoiceRepo) ApplyPayment(ctx context.Context, invID id.ID, amount types.Money, at time.Time) (*invoice.Invoice, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[invID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invID)
	}

	cp := *inv
	if err := cp.ApplyPayment(amount, at); err != nil {
		return nil, err
	}
	s.invoices[invID] = &cp

	out := cp
	return &out, nil
}

func (r *InvoiceRepo) RevertPayment(ctx context.Context, invID id.ID, amount types.Money, at time.Time) (*invoice.Invoice, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[invID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invID)
	}

	cp := *inv
	if err := cp.RevertPayment(amount, at); err != nil {
		return nil, err
	}
	s.invoices[invID] = &cp

	out := cp
	return &out, nil
}

func (r *InvoiceRepo) List(ctx context.Context, filter invoice.Filter) (domain.ListResult[*invoice.Invoice], error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*invoice.Invoice
	for _, inv := range s.invoices {
		if filter.CustomerID != nil && inv.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.OutstandingOnly && !inv.Outstanding().IsPositive() {
			continue
		}
		if filter.DueBefore != nil && (inv.DueDate == nil || !inv.DueDate.Before(*filter.DueBefore)) {
			continue
		}
		cp := *inv
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Number < matched[j].Number
	})

	total := int64(len(matched))
	limit := domain.ClampLimit(filter.Limit, 50, 500)
	matched = paginate(matched, filter.Offset, limit)

	return domain.ListResult[*invoice.Invoice]{
		Items:      matched,
		TotalCount: total,
		Limit:      limit,
		Offset:     filter.Offset,
	}, nil
}
