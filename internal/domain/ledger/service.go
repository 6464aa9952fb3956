package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/appctx"
	"tillbook/internal/core/id"
	"tillbook/internal/core/sequence"
	"tillbook/internal/core/tx"
	"tillbook/internal/core/types"
	"tillbook/internal/domain"
	"tillbook/internal/domain/invoice"
	"tillbook/internal/domain/registers/stock"
	"tillbook/internal/domain/shift"
	"tillbook/pkg/logger"
)

const (
	// maxStockRetries bounds internal retries on stock balance contention.
	maxStockRetries = 3
	// stockRetryBackoff is the base delay, doubled per attempt.
	stockRetryBackoff = 25 * time.Millisecond
)

// AuditSink records administrative overrides. The postgres implementation
// keeps a compressed snapshot of the removed record.
type AuditSink interface {
	RecordDeletion(ctx context.Context, deleted *Transaction, reason string) error
}

// DeletionEntry is one audit record of an administrative delete, with the
// snapshot of the record as it was removed.
type DeletionEntry struct {
	Reason    string          `json:"reason"`
	DeletedBy string          `json:"deletedBy"`
	DeletedAt time.Time       `json:"deletedAt"`
	Snapshot  json.RawMessage `json:"snapshot"`
}

// AuditReader retrieves the deletion trail for a transaction, newest first.
type AuditReader interface {
	GetDeletionHistory(ctx context.Context, txID id.ID, limit int) ([]DeletionEntry, error)
}

// Service provides the ledger store operations: create, status transitions,
// queries, and the audited administrative delete.
type Service struct {
	repo      Repository
	stock     *stock.Service
	shifts    shift.Repository
	customers domain.ReferenceChecker
	partners  domain.ReferenceChecker
	invoices  invoice.Repository
	generator sequence.Generator
	txManager tx.Manager
	audit     AuditSink

	// onShiftChange runs after a transition or delete touches a
	// transaction that carries a shift reference, outside the
	// transaction. Wiring uses it to invalidate cached summaries.
	onShiftChange func(ctx context.Context, shiftID id.ID)
}

// NewService creates a new ledger service.
func NewService(
	repo Repository,
	stockSvc *stock.Service,
	shifts shift.Repository,
	customers, partners domain.ReferenceChecker,
	invoices invoice.Repository,
	generator sequence.Generator,
	txManager tx.Manager,
	audit AuditSink,
) *Service {
	return &Service{
		repo:      repo,
		stock:     stockSvc,
		shifts:    shifts,
		customers: customers,
		partners:  partners,
		invoices:  invoices,
		generator: generator,
		txManager: txManager,
		audit:     audit,
	}
}

// WithShiftChangeHook registers a callback invoked after each transition or
// administrative delete of a transaction that references a shift.
func (s *Service) WithShiftChangeHook(fn func(ctx context.Context, shiftID id.ID)) *Service {
	s.onShiftChange = fn
	return s
}

func (s *Service) notifyShiftChange(ctx context.Context, shiftID *id.ID) {
	if s.onShiftChange != nil && shiftID != nil {
		s.onShiftChange(ctx, *shiftID)
	}
}

// CreateInput carries the already-typed arguments for a new transaction.
// Field-level validation (valid enum values, parseable amounts) is the
// caller's responsibility; this core enforces cross-entity and state
// invariants.
type CreateInput struct {
	Type     Type
	Method   Method
	Category Category
	Amount   types.Money

	// Code, when empty, is generated from the per-(type, day) sequence.
	Code string

	TransactionDate *time.Time
	DueDate         *time.Time

	CustomerID *id.ID
	PartnerID  *id.ID
	InvoiceID  *id.ID
	ShiftID    *id.ID

	Notes string

	// Complete records the transaction as completed immediately.
	Complete bool

	// StockLines, for sale/purchase/refund categories, are the stock
	// movements recorded in the same atomic unit as the transaction.
	StockLines []stock.Line
}

// Create validates references, assigns a code, and persists the transaction
// together with any implied stock movements in one atomic unit. Validation
// order: (1) every non-nil reference is resolved, failing fast on the first
// missing one; (2) the code is generated if absent; (3) everything is
// persisted atomically — a transaction recorded without its stock movement,
// or the reverse, is never visible.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Transaction, error) {
	if !input.Amount.IsPositive() {
		return nil, apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount").
			WithDetail("value", input.Amount.String())
	}

	t := NewTransaction(input.Type, input.Method, input.Category, input.Amount)
	t.Code = input.Code
	t.TransactionDate = input.TransactionDate
	t.DueDate = input.DueDate
	t.CustomerID = input.CustomerID
	t.PartnerID = input.PartnerID
	t.InvoiceID = input.InvoiceID
	t.ShiftID = input.ShiftID
	t.Notes = input.Notes
	t.CreatedBy = appctx.GetUserID(ctx)

	if input.Complete {
		t.Status = StatusCompleted
		if t.TransactionDate == nil {
			now := time.Now().UTC()
			t.TransactionDate = &now
		}
	}

	if err := t.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.resolveReferences(ctx, t); err != nil {
		return nil, err
	}

	if t.Code == "" {
		cfg := sequence.DefaultConfig(t.Type.CodePrefix())
		code, err := s.generator.NextCode(ctx, cfg, t.EffectiveDate())
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		t.Code = code
	}

	if err := s.persistWithRetry(ctx, t, input.StockLines); err != nil {
		return nil, err
	}

	logger.Info(ctx, "transaction created",
		"transaction_id", t.ID,
		"code", t.Code,
		"type", t.Type,
		"amount", t.Amount.String(),
		"status", t.Status,
	)
	return t, nil
}

// persistWithRetry runs the atomic write, retrying a bounded number of times
// with exponential backoff when the stock balance row is contended. Business
// rejections (InsufficientStock, DuplicateCode) are never retried.
func (s *Service) persistWithRetry(ctx context.Context, t *Transaction, lines []stock.Line) error {
	backoff := stockRetryBackoff
	var err error
	for attempt := 0; attempt <= maxStockRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			logger.Warn(ctx, "retrying contended ledger write",
				"transaction_id", t.ID,
				"attempt", attempt,
			)
		}

		err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.persist(ctx, t, lines)
		})
		if !apperror.IsCode(err, apperror.CodeStockContention) {
			return err
		}
	}
	return err
}

func (s *Service) persist(ctx context.Context, t *Transaction, lines []stock.Line) error {
	if err := s.repo.Create(ctx, t); err != nil {
		return err
	}

	if len(lines) > 0 {
		var err error
		switch t.Category {
		case CategorySale:
			err = s.stock.RecordSale(ctx, t.ID, t.EffectiveDate(), lines)
		case CategoryPurchase:
			err = s.stock.RecordPurchase(ctx, t.ID, t.EffectiveDate(), lines)
		case CategoryRefund:
			err = s.stock.RecordRefund(ctx, t.ID, t.EffectiveDate(), lines)
		default:
			err = apperror.NewValidation("stock lines require a sale, purchase or refund category").
				WithDetail("category", string(t.Category))
		}
		if err != nil {
			return err
		}
	}

	if t.Status == StatusCompleted && t.Type == TypeReceipt && t.InvoiceID != nil {
		if _, err := s.invoices.ApplyPayment(ctx, *t.InvoiceID, t.Amount, time.Now()); err != nil {
			return fmt.Errorf("apply payment to invoice: %w", err)
		}
	}

	return nil
}

// resolveReferences verifies every declared weak reference in a fixed order,
// failing fast on the first missing one. A shift must additionally be open.
func (s *Service) resolveReferences(ctx context.Context, t *Transaction) error {
	if t.CustomerID != nil {
		if err := s.checkExists(ctx, "customer", s.customers, *t.CustomerID); err != nil {
			return err
		}
	}
	if t.PartnerID != nil {
		if err := s.checkExists(ctx, "partner", s.partners, *t.PartnerID); err != nil {
			return err
		}
	}
	if t.InvoiceID != nil {
		exists, err := s.invoices.Exists(ctx, *t.InvoiceID)
		if err != nil {
			return fmt.Errorf("check invoice reference: %w", err)
		}
		if !exists {
			return apperror.NewReferenceNotFound("invoice", t.InvoiceID.String())
		}
	}
	if t.ShiftID != nil {
		sh, err := s.shifts.GetByID(ctx, *t.ShiftID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewReferenceNotFound("shift", t.ShiftID.String())
			}
			return fmt.Errorf("check shift reference: %w", err)
		}
		if !sh.IsOpen() {
			return apperror.NewShiftClosed(sh.ID.String())
		}
	}
	return nil
}

func (s *Service) checkExists(ctx context.Context, kind string, checker domain.ReferenceChecker, refID id.ID) error {
	exists, err := checker.Exists(ctx, refID)
	if err != nil {
		return fmt.Errorf("check %s reference: %w", kind, err)
	}
	if !exists {
		return apperror.NewReferenceNotFound(kind, refID.String())
	}
	return nil
}

// GetByID retrieves a transaction.
func (s *Service) GetByID(ctx context.Context, txID id.ID) (*Transaction, error) {
	return s.repo.GetByID(ctx, txID)
}

// Transition moves a transaction to a terminal status. Transitions for a
// single transaction are linearizable: concurrent attempts leave exactly one
// winner, repeats of the same transition are idempotent, and any attempt to
// leave a terminal state fails with InvalidStateTransition. Completing a
// receipt that references an invoice applies the payment in the same unit.
func (s *Service) Transition(ctx context.Context, txID id.ID, next Status) (*Transaction, error) {
	if !next.IsTerminal() {
		return nil, apperror.NewInvalidStateTransition("transaction", "", string(next)).
			WithDetail("reason", "target status must be terminal")
	}

	var (
		result  *Transaction
		applied bool
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, changed, err := s.repo.TransitionStatus(ctx, txID, next, time.Now())
		if err != nil {
			return err
		}
		result = t
		applied = changed

		if changed && next == StatusCompleted && t.Type == TypeReceipt && t.InvoiceID != nil {
			if _, err := s.invoices.ApplyPayment(ctx, *t.InvoiceID, t.Amount, time.Now()); err != nil {
				return fmt.Errorf("apply payment to invoice: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if applied {
		s.notifyShiftChange(ctx, result.ShiftID)
	}

	logger.Info(ctx, "transaction status changed",
		"transaction_id", txID,
		"status", next,
	)
	return result, nil
}

// UpdateInput carries the mutable, non-identity fields.
type UpdateInput struct {
	Notes   *string
	DueDate *time.Time
}

// Update changes mutable fields only. Code, type, amount and all weak
// references are immutable after creation.
func (s *Service) Update(ctx context.Context, txID id.ID, input UpdateInput) (*Transaction, error) {
	t, err := s.repo.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}

	if input.Notes != nil {
		t.Notes = *input.Notes
	}
	if input.DueDate != nil {
		t.DueDate = input.DueDate
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateMutable(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete is the administrative override: it removes the transaction and
// reverses its dependent effects (stock movements, applied invoice payment)
// in one atomic unit, recording an audit snapshot of what was removed.
func (s *Service) Delete(ctx context.Context, txID id.ID, reason string) error {
	if !appctx.IsAdmin(ctx) {
		return apperror.NewForbidden("transaction deletion requires administrative rights")
	}

	var deleted *Transaction
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetByID(ctx, txID)
		if err != nil {
			return err
		}
		deleted = t

		if err := s.stock.ReverseByTransaction(ctx, txID); err != nil {
			return err
		}

		if t.Status == StatusCompleted && t.Type == TypeReceipt && t.InvoiceID != nil {
			if _, err := s.invoices.RevertPayment(ctx, *t.InvoiceID, t.Amount, time.Now()); err != nil {
				return fmt.Errorf("revert invoice payment: %w", err)
			}
		}

		if err := s.repo.Delete(ctx, txID); err != nil {
			return err
		}

		if s.audit != nil {
			if err := s.audit.RecordDeletion(ctx, t, reason); err != nil {
				return fmt.Errorf("record audit entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifyShiftChange(ctx, deleted.ShiftID)

	logger.Warn(ctx, "transaction deleted by administrative override",
		"transaction_id", txID,
		"reason", reason,
	)
	return nil
}

// List retrieves transactions matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*Transaction], error) {
	filter.Limit = domain.ClampLimit(filter.Limit, 50, 500)
	return s.repo.List(ctx, filter)
}
