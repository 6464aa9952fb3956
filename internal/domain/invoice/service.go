package invoice

import (
	"context"
	"fmt"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/tx"
	"tillbook/internal/core/types"
	"tillbook/internal/domain"
	"tillbook/pkg/logger"
)

// Service provides invoice registration and queries. Payments are applied
// only through the ledger: a completed receipt referencing the invoice.
type Service struct {
	repo      Repository
	customers domain.ReferenceChecker
	txManager tx.Manager
}

// NewService creates a new invoice service.
func NewService(repo Repository, customers domain.ReferenceChecker, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		customers: customers,
		txManager: txManager,
	}
}

// Create registers a receivable after resolving the customer reference.
func (s *Service) Create(ctx context.Context, number string, customerID id.ID, issueDate time.Time, dueDate *time.Time, total types.Money) (*Invoice, error) {
	inv := NewInvoice(number, customerID, issueDate, dueDate, total)
	if err := inv.Validate(ctx); err != nil {
		return nil, err
	}

	ok, err := s.customers.Exists(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("resolve customer: %w", err)
	}
	if !ok {
		return nil, apperror.NewReferenceNotFound("customer", customerID)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice registered",
		"invoice_id", inv.ID,
		"number", inv.Number,
		"total", inv.Total,
	)
	return inv, nil
}

// GetByID retrieves an invoice.
func (s *Service) GetByID(ctx context.Context, invID id.ID) (*Invoice, error) {
	return s.repo.GetByID(ctx, invID)
}

// List retrieves invoices matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*Invoice], error) {
	filter.Limit = domain.ClampLimit(filter.Limit, 50, 500)
	return s.repo.List(ctx, filter)
}
