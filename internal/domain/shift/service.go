package shift

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

// Manager owns the open/close lifecycle of cash-drawer sessions.
type Manager struct {
	repo       Repository
	employees  domain.ReferenceChecker
	warehouses domain.ReferenceChecker
	txManager  tx.Manager

	// onClose runs after a successful close, outside the transaction.
	// Wiring uses it to invalidate cached summaries.
	onClose func(ctx context.Context, s *Shift)
}

// NewManager creates a new shift manager.
func NewManager(repo Repository, employees, warehouses domain.ReferenceChecker, txManager tx.Manager) *Manager {
	return &Manager{
		repo:       repo,
		employees:  employees,
		warehouses: warehouses,
		txManager:  txManager,
	}
}

// WithCloseHook registers a callback invoked after each successful close.
func (m *Manager) WithCloseHook(fn func(ctx context.Context, s *Shift)) *Manager {
	m.onClose = fn
	return m
}

// Open creates a new open shift for the employee at the warehouse.
// Fails with ShiftAlreadyOpen when one already exists for that pair.
func (m *Manager) Open(ctx context.Context, employeeID, warehouseID id.ID, openingCash types.Money) (*Shift, error) {
	s := NewShift(employeeID, warehouseID, openingCash)
	if err := s.Validate(ctx); err != nil {
		return nil, err
	}

	if err := m.checkReference(ctx, "employee", m.employees, employeeID); err != nil {
		return nil, err
	}
	if err := m.checkReference(ctx, "warehouse", m.warehouses, warehouseID); err != nil {
		return nil, err
	}

	err := m.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return m.repo.CreateOpen(ctx, s)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "shift opened",
		"shift_id", s.ID,
		"employee_id", employeeID,
		"warehouse_id", warehouseID,
		"opening_cash", openingCash.String(),
	)
	return s, nil
}

// Close transitions an open shift to closed. The summary becomes computable
// the moment this returns: the shift row carries closing cash and end time.
func (m *Manager) Close(ctx context.Context, shiftID id.ID, closingCash types.Money) (*Shift, error) {
	if closingCash.IsNegative() {
		return nil, apperror.NewValidation("closing cash must not be negative").
			WithDetail("field", "closingCash")
	}

	var closed *Shift
	err := m.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		s, err := m.repo.Close(ctx, shiftID, closingCash, time.Now())
		if err != nil {
			return err
		}
		closed = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "shift closed",
		"shift_id", closed.ID,
		"closing_cash", closingCash.String(),
	)

	if m.onClose != nil {
		m.onClose(ctx, closed)
	}
	return closed, nil
}

// GetByID retrieves a shift.
func (m *Manager) GetByID(ctx context.Context, shiftID id.ID) (*Shift, error) {
	return m.repo.GetByID(ctx, shiftID)
}

// GetOpen returns the currently open shift for an employee at a warehouse.
func (m *Manager) GetOpen(ctx context.Context, employeeID, warehouseID id.ID) (*Shift, error) {
	return m.repo.GetOpen(ctx, employeeID, warehouseID)
}

// List retrieves shifts matching the filter.
func (m *Manager) List(ctx context.Context, filter Filter) (domain.ListResult[*Shift], error) {
	return m.repo.List(ctx, filter)
}

func (m *Manager) checkReference(ctx context.Context, kind string, checker domain.ReferenceChecker, refID id.ID) error {
	exists, err := checker.Exists(ctx, refID)
	if err != nil {
		return fmt.Errorf("check %s reference: %w", kind, err)
	}
	if !exists {
		return apperror.NewReferenceNotFound(kind, refID.String())
	}
	return nil
}
