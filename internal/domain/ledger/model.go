// Package ledger provides the financial transaction ledger: uniquely numbered
// receipt/payment records with a closed status lifecycle.
package ledger

import (
	"context"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// Type defines the direction of a transaction.
type Type string

const (
	TypeReceipt Type = "receipt" // money in
	TypePayment Type = "payment" // money out
)

// CodePrefix returns the code series prefix for the type.
func (t Type) CodePrefix() string {
	if t == TypePayment {
		return "PAY"
	}
	return "REC"
}

// Sign returns +1 for receipts and -1 for payments.
func (t Type) Sign() int64 {
	if t == TypePayment {
		return -1
	}
	return 1
}

// Method defines how the money moved.
type Method string

const (
	MethodCash         Method = "cash"
	MethodBankTransfer Method = "bank_transfer"
	MethodCreditCard   Method = "credit_card"
	MethodEWallet      Method = "e_wallet"
	MethodOther        Method = "other"
)

// Status is the transaction lifecycle state.
// pending -> completed | canceled | failed; the three targets are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further transitions are permitted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled || s == StatusFailed
}

// CanTransitionTo reports whether s -> next is a legal transition.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && next.IsTerminal()
}

// Category classifies the business cause of a transaction.
type Category string

const (
	CategorySale     Category = "sale"
	CategoryPurchase Category = "purchase"
	CategoryExpense  Category = "expense"
	CategoryIncome   Category = "income"
	CategoryRefund   Category = "refund"
	CategoryOther    Category = "other"
)

// Transaction is a single ledger record. Created once, never mutated except
// for status transitions and non-identity fields; never deleted in normal
// operation (deletion is an audited administrative override).
type Transaction struct {
	ID id.ID `db:"id" json:"id"`

	// Code is the human-readable transaction code, globally unique,
	// format PREFIX-YYYYMMDD-NNNN. Immutable once assigned.
	Code string `db:"code" json:"code"`

	Type     Type     `db:"type" json:"type"`
	Method   Method   `db:"method" json:"method"`
	Status   Status   `db:"status" json:"status"`
	Category Category `db:"category" json:"category"`

	// Amount is always non-negative; direction comes from Type.
	Amount types.Money `db:"amount" json:"amount"`

	TransactionDate *time.Time `db:"transaction_date" json:"transactionDate,omitempty"`
	DueDate         *time.Time `db:"due_date" json:"dueDate,omitempty"`

	// Weak references: lookup-only identifiers, never ownership edges.
	// The ledger never cascades into these aggregates.
	CustomerID *id.ID `db:"customer_id" json:"customerId,omitempty"`
	PartnerID  *id.ID `db:"partner_id" json:"partnerId,omitempty"`
	InvoiceID  *id.ID `db:"invoice_id" json:"invoiceId,omitempty"`
	ShiftID    *id.ID `db:"shift_id" json:"shiftId,omitempty"`

	CreatedBy string `db:"created_by" json:"createdBy,omitempty"`
	Notes     string `db:"notes" json:"notes,omitempty"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewTransaction creates a pending transaction with generated ID.
func NewTransaction(txType Type, method Method, category Category, amount types.Money) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		ID:        id.New(),
		Type:      txType,
		Method:    method,
		Status:    StatusPending,
		Category:  category,
		Amount:    amount,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks internal invariants (no database access).
func (t *Transaction) Validate(ctx context.Context) error {
	switch t.Type {
	case TypeReceipt, TypePayment:
	default:
		return apperror.NewValidation("invalid transaction type").
			WithDetail("field", "type").
			WithDetail("value", string(t.Type))
	}

	switch t.Method {
	case MethodCash, MethodBankTransfer, MethodCreditCard, MethodEWallet, MethodOther:
	default:
		return apperror.NewValidation("invalid payment method").
			WithDetail("field", "method").
			WithDetail("value", string(t.Method))
	}

	switch t.Category {
	case CategorySale, CategoryPurchase, CategoryExpense, CategoryIncome, CategoryRefund, CategoryOther:
	default:
		return apperror.NewValidation("invalid category").
			WithDetail("field", "category").
			WithDetail("value", string(t.Category))
	}

	if t.Amount.IsNegative() {
		return apperror.NewValidation("amount must not be negative").
			WithDetail("field", "amount").
			WithDetail("value", t.Amount.String())
	}

	if t.Status == StatusCompleted && t.TransactionDate == nil {
		return apperror.NewValidation("completed transaction requires a transaction date").
			WithDetail("field", "transactionDate")
	}

	return nil
}

// Transition applies a status change in place, enforcing the state machine.
// Applying the current status again is an idempotent no-op.
func (t *Transaction) Transition(next Status, at time.Time) error {
	if t.Status == next {
		return nil
	}
	if !t.Status.CanTransitionTo(next) {
		return apperror.NewInvalidStateTransition("transaction", string(t.Status), string(next)).
			WithDetail("transaction_id", t.ID.String())
	}

	t.Status = next
	if next == StatusCompleted && t.TransactionDate == nil {
		utc := at.UTC()
		t.TransactionDate = &utc
	}
	t.UpdatedAt = at.UTC()
	t.Version++
	return nil
}

// EffectiveDate returns the business date of the transaction: the transaction
// date when set, otherwise the creation time. Used for code series keys.
func (t *Transaction) EffectiveDate() time.Time {
	if t.TransactionDate != nil {
		return *t.TransactionDate
	}
	return t.CreatedAt
}
