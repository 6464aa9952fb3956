package stock

import (
	"context"
	"fmt"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/pkg/logger"
)

// Service provides business operations for the stock register.
// Transactions are managed by the caller (the ledger service) so that
// movements commit or roll back together with their recording transaction.
type Service struct {
	repo Repository
}

// NewService creates a new stock register service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordSale records expense movements for a sale. The repository rejects
// any line that would drive the running balance negative.
func (s *Service) RecordSale(ctx context.Context, txID id.ID, period time.Time, lines []Line) error {
	return s.record(ctx, txID, period, lines, DirectionExpense, CauseSale)
}

// RecordPurchase records receipt movements for a purchase.
func (s *Service) RecordPurchase(ctx context.Context, txID id.ID, period time.Time, lines []Line) error {
	return s.record(ctx, txID, period, lines, DirectionReceipt, CausePurchaseReceipt)
}

// RecordRefund returns sold goods to stock.
func (s *Service) RecordRefund(ctx context.Context, txID id.ID, period time.Time, lines []Line) error {
	return s.record(ctx, txID, period, lines, DirectionReceipt, CauseManualAdjustment)
}

func (s *Service) record(ctx context.Context, txID id.ID, period time.Time, lines []Line, direction Direction, cause Cause) error {
	if len(lines) == 0 {
		return nil
	}

	movements := make([]Movement, 0, len(lines))
	for i, line := range lines {
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("line %d: quantity must be positive", i))
		}
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation(fmt.Sprintf("line %d: product is required", i))
		}
		if id.IsNil(line.WarehouseID) {
			return apperror.NewValidation(fmt.Sprintf("line %d: warehouse is required", i))
		}

		m := NewMovement(line.ProductID, line.WarehouseID, line.Quantity, direction, cause, period)
		m.RelatedTransactionID = &txID
		movements = append(movements, m)
	}

	if err := s.repo.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}

	logger.Info(ctx, "recorded stock movements",
		"count", len(movements),
		"cause", cause,
		"transaction_id", txID,
	)

	return nil
}

// ReverseByTransaction removes all movements recorded by a ledger transaction.
// Used only by the administrative delete path.
func (s *Service) ReverseByTransaction(ctx context.Context, txID id.ID) error {
	if err := s.repo.DeleteMovementsByTransaction(ctx, txID); err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}

	logger.Info(ctx, "reversed stock movements", "transaction_id", txID)
	return nil
}

// GetBalance returns the current balance for one (product, warehouse) pair.
func (s *Service) GetBalance(ctx context.Context, productID, warehouseID id.ID) (Balance, error) {
	return s.repo.GetBalance(ctx, productID, warehouseID)
}

// GetWarehouseStock returns all products with a non-zero balance.
func (s *Service) GetWarehouseStock(ctx context.Context, warehouseID id.ID) ([]Balance, error) {
	return s.repo.GetBalancesByWarehouse(ctx, warehouseID)
}

// GetMovementHistory returns movement history for a product.
func (s *Service) GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error) {
	return s.repo.GetMovementHistory(ctx, productID, filter)
}
