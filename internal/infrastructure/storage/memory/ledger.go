package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain"
	"tillbook/internal/domain/ledger"
)

// LedgerRepo implements ledger.Repository on the store.
type LedgerRepo struct {
	store *Store
}

func NewLedgerRepo(store *Store) *LedgerRepo {
	return &LedgerRepo{store: store}
}

func (r *LedgerRepo) Create(ctx context.Context, tx *ledger.Transaction) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.txCodes[tx.Code]; exists {
		return apperror.NewDuplicateCode(tx.Code)
	}
	if _, exists := s.transactions[tx.ID]; exists {
		return apperror.NewConflict("transaction already exists")
	}

	cp := *tx
	s.transactions[tx.ID] = &cp
	s.txCodes[tx.Code] = tx.ID
	return nil
}

func (r *LedgerRepo) GetByID(ctx context.Context, txID id.ID) (*ledger.Transaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[txID]
	if !ok {
		return nil, apperror.NewNotFound("transaction", txID)
	}
	cp := *t
	return &cp, nil
}

func (r *LedgerRepo) UpdateMutable(ctx context.Context, tx *ledger.Transaction) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.transactions[tx.ID]
	if !ok {
		return apperror.NewNotFound("transaction", tx.ID)
	}
	if cur.Version != tx.Version {
		return apperror.NewConcurrentModification("transaction", tx.ID)
	}

	cp := *cur
	cp.Notes = tx.Notes
	cp.DueDate = tx.DueDate
	cp.Version++
	cp.UpdatedAt = time.Now().UTC()
	s.transactions[tx.ID] = &cp

	tx.Version = cp.Version
	tx.UpdatedAt = cp.UpdatedAt
	return nil
}

func (r *LedgerRepo) TransitionStatus(ctx context.Context, txID id.ID, next ledger.Status, at time.Time) (*ledger.Transaction, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.transactions[txID]
	if !ok {
		return nil, false, apperror.NewNotFound("transaction", txID)
	}
	if cur.Status == next {
		cp := *cur
		return &cp, false, nil
	}

	cp := *cur
	if err := cp.Transition(next, at); err != nil {
		return nil, false, err
	}
	s.transactions[txID] = &cp

	out := cp
	return &out, true, nil
}

func (r *LedgerRepo) Delete(ctx context.Context, txID id.ID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[txID]
	if !ok {
		return apperror.NewNotFound("transaction", txID)
	}
	delete(s.txCodes, t.Code)
	delete(s.transactions, txID)
	return nil
}

func (r *LedgerRepo) List(ctx context.Context, filter ledger.Filter) (domain.ListResult[*ledger.Transaction], error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*ledger.Transaction
	for _, t := range s.transactions {
		if matchesFilter(t, filter) {
			cp := *t
			matched = append(matched, &cp)
		}
	}

	sortTransactions(matched, filter.OrderBy)

	total := int64(len(matched))
	limit := domain.ClampLimit(filter.Limit, 50, 500)
	matched = paginate(matched, filter.Offset, limit)

	return domain.ListResult[*ledger.Transaction]{
		Items:      matched,
		TotalCount: total,
		Limit:      limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *LedgerRepo) ListByShift(ctx context.Context, shiftID id.ID) ([]*ledger.Transaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ledger.Transaction
	for _, t := range s.transactions {
		if t.ShiftID != nil && *t.ShiftID == shiftID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func matchesFilter(t *ledger.Transaction, f ledger.Filter) bool {
	if f.CodeContains != "" && !strings.Contains(strings.ToLower(t.Code), strings.ToLower(f.CodeContains)) {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.CreatedBy != "" && t.CreatedBy != f.CreatedBy {
		return false
	}
	if f.CustomerID != nil && (t.CustomerID == nil || *t.CustomerID != *f.CustomerID) {
		return false
	}
	if f.PartnerID != nil && (t.PartnerID == nil || *t.PartnerID != *f.PartnerID) {
		return false
	}
	if f.InvoiceID != nil && (t.InvoiceID == nil || *t.InvoiceID != *f.InvoiceID) {
		return false
	}
	if f.ShiftID != nil && (t.ShiftID == nil || *t.ShiftID != *f.ShiftID) {
		return false
	}
	if f.DateFrom != nil && t.EffectiveDate().Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && t.EffectiveDate().After(*f.DateTo) {
		return false
	}
	return true
}

func sortTransactions(txs []*ledger.Transaction, orderBy string) {
	if orderBy == "" {
		orderBy = "-transaction_date"
	}
	desc := strings.HasPrefix(orderBy, "-")
	field := strings.TrimPrefix(orderBy, "-")

	less := func(a, b *ledger.Transaction) bool {
		switch field {
		case "code":
			return a.Code < b.Code
		case "amount":
			return a.Amount.LessThan(b.Amount)
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.EffectiveDate().Before(b.EffectiveDate())
		}
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if desc {
			return less(txs[j], txs[i])
		}
		return less(txs[i], txs[j])
	})
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
