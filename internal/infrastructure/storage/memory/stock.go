package memory

import (
	"context"
	"sort"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/registers/stock"
)

// StockRepo implements stock.Repository on the store.
type StockRepo struct {
	store *Store
}

func NewStockRepo(store *Store) *StockRepo {
	return &StockRepo{store: store}
}

func (r *StockRepo) CreateMovements(ctx context.Context, movements []stock.Movement) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch against resulting balances before applying
	// anything, so a rejected line leaves no partial effect.
	deltas := make(map[balanceKey]int64)
	for _, m := range movements {
		key := balanceKey{productID: m.ProductID, warehouseID: m.WarehouseID}
		deltas[key] += int64(m.SignedQuantity())

		if m.Direction == stock.DirectionExpense && m.Cause == stock.CauseSale {
			current := int64(s.balances[key].Quantity)
			if current+deltas[key] < 0 {
				return apperror.NewInsufficientStock(
					m.ProductID.String(),
					m.Quantity.Float64(),
					types.Quantity(current).Float64(),
				)
			}
		}
	}

	for _, m := range movements {
		s.movements = append(s.movements, m)
		key := balanceKey{productID: m.ProductID, warehouseID: m.WarehouseID}
		b := s.balances[key]
		b.ProductID = m.ProductID
		b.WarehouseID = m.WarehouseID
		b.Quantity += m.SignedQuantity()
		b.LastMovementAt = m.CreatedAt
		b.UpdatedAt = m.CreatedAt
		s.balances[key] = b
	}
	return nil
}

func (r *StockRepo) DeleteMovementsByTransaction(ctx context.Context, txID id.ID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.movements[:0]
	for _, m := range s.movements {
		if m.RelatedTransactionID != nil && *m.RelatedTransactionID == txID {
			key := balanceKey{productID: m.ProductID, warehouseID: m.WarehouseID}
			b := s.balances[key]
			b.Quantity -= m.SignedQuantity()
			s.balances[key] = b
			continue
		}
		kept = append(kept, m)
	}
	s.movements = kept
	return nil
}

func (r *StockRepo) GetMovementsByTransaction(ctx context.Context, txID id.ID) ([]stock.Movement, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []stock.Movement
	for _, m := range s.movements {
		if m.RelatedTransactionID != nil && *m.RelatedTransactionID == txID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *StockRepo) GetBalance(ctx context.Context, productID, warehouseID id.ID) (stock.Balance, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := balanceKey{productID: productID, warehouseID: warehouseID}
	b, ok := s.balances[key]
	if !ok {
		return stock.Balance{ProductID: productID, WarehouseID: warehouseID}, nil
	}
	return b, nil
}

func (r *StockRepo) GetBalancesByWarehouse(ctx context.Context, warehouseID id.ID) ([]stock.Balance, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []stock.Balance
	for key, b := range s.balances {
		if key.warehouseID == warehouseID && b.Quantity != 0 {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out, nil
}

func (r *StockRepo) GetMovementHistory(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]stock.Movement, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []stock.Movement
	for _, m := range s.movements {
		if m.ProductID != productID {
			continue
		}
		if filter.WarehouseID != nil && m.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.Cause != nil && m.Cause != *filter.Cause {
			continue
		}
		if filter.FromDate != nil && m.CreatedAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && m.CreatedAt.After(*filter.ToDate) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	out = paginate(out, filter.Offset, limit)
	return out, nil
}
