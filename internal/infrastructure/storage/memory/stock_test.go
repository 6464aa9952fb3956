package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/registers/stock"
)

func movement(productID, warehouseID id.ID, qty float64, dir stock.Direction, cause stock.Cause, txID *id.ID) stock.Movement {
	m := stock.NewMovement(productID, warehouseID, types.NewQuantityFromFloat64(qty), dir, cause, time.Now())
	m.RelatedTransactionID = txID
	return m
}

func TestStockRepo_BalanceFollowsMovements(t *testing.T) {
	store := NewStore()
	repo := NewStockRepo(store)
	ctx := context.Background()
	productID, warehouseID := id.New(), id.New()

	require.NoError(t, repo.CreateMovements(ctx, []stock.Movement{
		movement(productID, warehouseID, 10, stock.DirectionReceipt, stock.CausePurchaseReceipt, nil),
	}))
	require.NoError(t, repo.CreateMovements(ctx, []stock.Movement{
		movement(productID, warehouseID, 4, stock.DirectionExpense, stock.CauseSale, nil),
	}))

	b, err := repo.GetBalance(ctx, productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(6), b.Quantity)
}

func TestStockRepo_UnknownPairHasZeroBalance(t *testing.T) {
	repo := NewStockRepo(NewStore())

	b, err := repo.GetBalance(context.Background(), id.New(), id.New())
	require.NoError(t, err)
	assert.True(t, b.Quantity.IsZero())
}

func TestStockRepo_SaleNeverDrivesBalanceNegative(t *testing.T) {
	store := NewStore()
	repo := NewStockRepo(store)
	ctx := context.Background()
	productID, warehouseID := id.New(), id.New()

	require.NoError(t, repo.CreateMovements(ctx, []stock.Movement{
		movement(productID, warehouseID, 3, stock.DirectionReceipt, stock.CausePurchaseReceipt, nil),
	}))

	err := repo.CreateMovements(ctx, []stock.Movement{
		movement(productID, warehouseID, 5, stock.DirectionExpense, stock.CauseSale, nil),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	b, err := repo.GetBalance(ctx, productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(3), b.Quantity, "rejected batch leaves balance untouched")
}

func TestStockRepo_BatchValidatedBeforeApply(t *testing.T) {
	store := NewStore()
	repo := NewStockRepo(store)
	ctx := context.Background()
	productA, productB, warehouseID := id.New(), id.New(), id.New()

	require.NoError(t, repo.CreateMovements(ctx, []stock.Movement{
		movement(productA, warehouseID, 10, stock.DirectionReceipt, stock.CausePurchaseReceipt, nil),
	}))

	// Second line of the batch fails; the first must not stick.
	err := repo.CreateMovements(ctx, []stock.Movement{
		movement(productA, warehouseID, 2, stock.DirectionExpense, stock.CauseSale, nil),
		movement(productB, warehouseID, 1, stock.DirectionExpense, stock.CauseSale, nil),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	a, err := repo.GetBalance(ctx, productA, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(10), a.Quantity)

	history, err := repo.GetMovementHistory(ctx, productA, stock.MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestStockRepo_DeleteByTransactionRestoresBalances(t *testing.T) {
	store := NewStore()
	repo := NewStockRepo(store)
	ctx := context.Background()
	productID, warehouseID := id.New(), id.New()
	txID := id.New()

	require.NoError(t, repo.CreateMovements(ctx, []stock.Movement{
		movement(productID, warehouseID, 10, stock.DirectionReceipt, stock.CausePurchaseReceipt, nil),
	}))
	require.NoError(t, repo.CreateMovements(ctx, []stock.Movement{
		movement(productID, warehouseID, 4, stock.DirectionExpense, stock.CauseSale, &txID),
	}))

	require.NoError(t, repo.DeleteMovementsByTransaction(ctx, txID))

	b, err := repo.GetBalance(ctx, productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(10), b.Quantity)

	remaining, err := repo.GetMovementsByTransaction(ctx, txID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestStockRepo_WarehouseStockSkipsZeroBalances(t *testing.T) {
	store := NewStore()
	repo := NewStockRepo(store)
	ctx := context.Background()
	productA, productB, warehouseID := id.New(), id.New(), id.New()

	require.NoError(t, repo.CreateMovements(ctx, []stock.Movement{
		movement(productA, warehouseID, 5, stock.DirectionReceipt, stock.CausePurchaseReceipt, nil),
		movement(productB, warehouseID, 2, stock.DirectionReceipt, stock.CausePurchaseReceipt, nil),
	}))
	require.NoError(t, repo.CreateMovements(ctx, []stock.Movement{
		movement(productB, warehouseID, 2, stock.DirectionExpense, stock.CauseSale, nil),
	}))

	balances, err := repo.GetBalancesByWarehouse(ctx, warehouseID)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, productA, balances[0].ProductID)
}

func TestStockRepo_MovementHistoryFilter(t *testing.T) {
	store := NewStore()
	repo := NewStockRepo(store)
	ctx := context.Background()
	productID, warehouseA, warehouseB := id.New(), id.New(), id.New()

	require.NoError(t, repo.CreateMovements(ctx, []stock.Movement{
		movement(productID, warehouseA, 5, stock.DirectionReceipt, stock.CausePurchaseReceipt, nil),
		movement(productID, warehouseB, 3, stock.DirectionReceipt, stock.CausePurchaseReceipt, nil),
	}))
	require.NoError(t, repo.CreateMovements(ctx, []stock.Movement{
		movement(productID, warehouseA, 1, stock.DirectionExpense, stock.CauseSale, nil),
	}))

	all, err := repo.GetMovementHistory(ctx, productID, stock.MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	whA := warehouseA
	inA, err := repo.GetMovementHistory(ctx, productID, stock.MovementFilter{WarehouseID: &whA})
	require.NoError(t, err)
	assert.Len(t, inA, 2)

	sale := stock.CauseSale
	sales, err := repo.GetMovementHistory(ctx, productID, stock.MovementFilter{Cause: &sale})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, stock.DirectionExpense, sales[0].Direction)
}
