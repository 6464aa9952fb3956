// Package register_repo provides PostgreSQL implementations for register
// repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/registers/stock"
	"tillbook/internal/infrastructure/storage/postgres"
)

const (
	stockMovementsTable = "reg_stock_movements"
	stockBalancesTable  = "reg_stock_balances"
)

var movementCols = []string{
	"line_id", "product_id", "warehouse_id",
	"quantity", "direction", "cause",
	"related_transaction_id", "period", "created_at",
}

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	inserter  *postgres.BatchInserter
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		inserter:  postgres.NewBatchInserter(txManager),
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ stock.Repository = (*StockRepo)(nil)

// CreateMovements inserts movements via COPY and applies balance deltas
// with a conditional upsert. The balance row lock serializes concurrent
// writers; a sale that would drive the balance negative fails the whole
// batch, which the surrounding transaction rolls back.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []stock.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	if r.txManager.GetTx(ctx) == nil {
		return fmt.Errorf("CreateMovements requires transaction context")
	}

	rows := make([][]any, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, []any{
			m.LineID, m.ProductID, m.WarehouseID,
			m.Quantity, m.Direction, m.Cause,
			m.RelatedTransactionID, m.Period, m.CreatedAt,
		})
	}
	if _, err := r.inserter.CopyFromSlice(ctx, stockMovementsTable, movementCols, rows); err != nil {
		if postgres.IsContention(err) {
			return apperror.NewStockContention(movements[0].ProductID.String()).WithCause(err)
		}
		return fmt.Errorf("copy movements: %w", err)
	}

	return r.applyBalanceDeltas(ctx, movements)
}

type balanceDelta struct {
	productID   id.ID
	warehouseID id.ID
	delta       types.Quantity
	hasSale     bool
}

func (r *StockRepo) applyBalanceDeltas(ctx context.Context, movements []stock.Movement) error {
	type key struct {
		productID   id.ID
		warehouseID id.ID
	}
	deltas := make(map[key]*balanceDelta)
	var order []key
	for _, m := range movements {
		k := key{productID: m.ProductID, warehouseID: m.WarehouseID}
		d, ok := deltas[k]
		if !ok {
			d = &balanceDelta{productID: m.ProductID, warehouseID: m.WarehouseID}
			deltas[k] = d
			order = append(order, k)
		}
		d.delta += m.SignedQuantity()
		if m.Direction == stock.DirectionExpense && m.Cause == stock.CauseSale {
			d.hasSale = true
		}
	}

	querier := r.txManager.GetQuerier(ctx)
	for _, k := range order {
		d := deltas[k]
		var newQuantity int64
		err := querier.QueryRow(ctx, `
			INSERT INTO reg_stock_balances (product_id, warehouse_id, quantity, last_movement_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
			ON CONFLICT (product_id, warehouse_id)
			DO UPDATE SET quantity = reg_stock_balances.quantity + EXCLUDED.quantity,
			              last_movement_at = now(),
			              updated_at = now()
			RETURNING quantity
		`, d.productID, d.warehouseID, d.delta.Int64Scaled()).Scan(&newQuantity)
		if err != nil {
			if postgres.IsContention(err) {
				return apperror.NewStockContention(d.productID.String()).WithCause(err)
			}
			return fmt.Errorf("update balance: %w", err)
		}

		if d.hasSale && newQuantity < 0 {
			available := types.NewQuantityFromInt64Scaled(newQuantity) - d.delta
			return apperror.NewInsufficientStock(
				d.productID.String(),
				d.delta.Abs().Float64(),
				available.Float64(),
			)
		}
	}
	return nil
}

// DeleteMovementsByTransaction removes a ledger transaction's movements
// and restores the balances they affected.
func (r *StockRepo) DeleteMovementsByTransaction(ctx context.Context, txID id.ID) error {
	if r.txManager.GetTx(ctx) == nil {
		return fmt.Errorf("DeleteMovementsByTransaction requires transaction context")
	}

	movements, err := r.GetMovementsByTransaction(ctx, txID)
	if err != nil {
		return err
	}
	if len(movements) == 0 {
		return nil
	}

	querier := r.txManager.GetQuerier(ctx)
	for _, m := range movements {
		_, err := querier.Exec(ctx, `
			UPDATE reg_stock_balances
			SET quantity = quantity - $3, updated_at = now()
			WHERE product_id = $1 AND warehouse_id = $2
		`, m.ProductID, m.WarehouseID, m.SignedQuantity().Int64Scaled())
		if err != nil {
			return fmt.Errorf("restore balance: %w", err)
		}
	}

	q := r.builder.Delete(stockMovementsTable).
		Where(squirrel.Eq{"related_transaction_id": txID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}

	return nil
}

// GetMovementsByTransaction retrieves movements for a ledger transaction.
func (r *StockRepo) GetMovementsByTransaction(ctx context.Context, txID id.ID) ([]stock.Movement, error) {
	q := r.builder.Select(movementCols...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"related_transaction_id": txID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []stock.Movement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return movements, nil
}

// GetBalance returns the current balance, zero when no movements exist.
func (r *StockRepo) GetBalance(ctx context.Context, productID, warehouseID id.ID) (stock.Balance, error) {
	var balance stock.Balance

	q := r.builder.Select(
		"product_id", "warehouse_id",
		"quantity", "last_movement_at", "updated_at",
	).From(stockBalancesTable).
		Where(squirrel.Eq{
			"product_id":   productID,
			"warehouse_id": warehouseID,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return balance, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return stock.Balance{
				ProductID:   productID,
				WarehouseID: warehouseID,
				Quantity:    0,
			}, nil
		}
		return balance, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// GetBalancesByWarehouse returns non-zero balances for a warehouse.
func (r *StockRepo) GetBalancesByWarehouse(ctx context.Context, warehouseID id.ID) ([]stock.Balance, error) {
	q := r.builder.Select(
		"product_id", "warehouse_id",
		"quantity", "last_movement_at", "updated_at",
	).From(stockBalancesTable).
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		Where(squirrel.NotEq{"quantity": int64(0)}).
		OrderBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []stock.Balance
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}

	return balances, nil
}

// GetMovementHistory returns movement history for a product.
func (r *StockRepo) GetMovementHistory(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]stock.Movement, error) {
	q := r.builder.Select(movementCols...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"product_id": productID})

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Cause != nil {
		q = q.Where(squirrel.Eq{"cause": *filter.Cause})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.ToDate})
	}

	q = q.OrderBy("period DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []stock.Movement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}

	return movements, nil
}
