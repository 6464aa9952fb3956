package stock

import (
	"context"
	"time"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// Repository defines operations for the stock register.
//
// Implementations must make CreateMovements conditional: recording a sale
// movement that would drive the (product, warehouse) balance negative fails
// with apperror.CodeInsufficientStock, using either a locked read-then-write
// or an equivalent conditional update. Transient lock contention surfaces as
// apperror.CodeStockContention for the service to retry.
type Repository interface {
	// CreateMovements inserts movements and updates balances in one unit.
	// Must be called within a transaction when movements accompany a
	// ledger write.
	CreateMovements(ctx context.Context, movements []Movement) error

	// DeleteMovementsByTransaction removes movements recorded by a ledger
	// transaction (administrative override path) and restores balances.
	DeleteMovementsByTransaction(ctx context.Context, txID id.ID) error

	// GetMovementsByTransaction retrieves movements for a ledger transaction.
	GetMovementsByTransaction(ctx context.Context, txID id.ID) ([]Movement, error)

	// GetBalance returns the current balance (zero when no movements exist).
	GetBalance(ctx context.Context, productID, warehouseID id.ID) (Balance, error)

	// GetBalancesByWarehouse returns non-zero balances for a warehouse.
	GetBalancesByWarehouse(ctx context.Context, warehouseID id.ID) ([]Balance, error)

	// GetMovementHistory returns movement history for a product.
	GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error)
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	WarehouseID *id.ID
	Cause       *Cause
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}

// Line is one requested stock change, used when a ledger transaction
// implies stock movements.
type Line struct {
	ProductID   id.ID
	WarehouseID id.ID
	Quantity    types.Quantity
}
