// Package invoice provides receivable invoices: the balances the aging
// engine buckets and the targets payments are applied against.
package invoice

import (
	"context"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// Status is derived from the paid amount but stored for cheap filtering.
type Status string

const (
	StatusOpen Status = "open"
	StatusPaid Status = "paid"
)

// Invoice is a receivable owed by a customer. The ledger holds only a weak
// reference to it; completed receipts reduce its outstanding balance.
type Invoice struct {
	ID id.ID `db:"id" json:"id"`

	Number     string `db:"number" json:"number"`
	CustomerID id.ID  `db:"customer_id" json:"customerId"`

	IssueDate time.Time  `db:"issue_date" json:"issueDate"`
	DueDate   *time.Time `db:"due_date" json:"dueDate,omitempty"`

	Total      types.Money `db:"total" json:"total"`
	PaidAmount types.Money `db:"paid_amount" json:"paidAmount"`

	Status Status `db:"status" json:"status"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewInvoice creates an open invoice.
func NewInvoice(number string, customerID id.ID, issueDate time.Time, dueDate *time.Time, total types.Money) *Invoice {
	now := time.Now().UTC()
	return &Invoice{
		ID:         id.New(),
		Number:     number,
		CustomerID: customerID,
		IssueDate:  issueDate,
		DueDate:    dueDate,
		Total:      total,
		PaidAmount: types.ZeroMoney(),
		Status:     StatusOpen,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate checks internal invariants.
func (i *Invoice) Validate(ctx context.Context) error {
	if i.Number == "" {
		return apperror.NewValidation("invoice number is required").
			WithDetail("field", "number")
	}
	if id.IsNil(i.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if i.Total.IsNegative() {
		return apperror.NewValidation("total must not be negative").
			WithDetail("field", "total")
	}
	return nil
}

// Outstanding returns the unpaid balance.
func (i *Invoice) Outstanding() types.Money {
	return i.Total.Sub(i.PaidAmount)
}

// ApplyPayment reduces the outstanding balance in place.
func (i *Invoice) ApplyPayment(amount types.Money, at time.Time) error {
	if amount.IsNegative() || amount.IsZero() {
		return apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}
	if amount.GreaterThan(i.Outstanding()) {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "payment exceeds outstanding balance").
			WithDetail("invoice_id", i.ID.String()).
			WithDetail("outstanding", i.Outstanding().String()).
			WithDetail("amount", amount.String())
	}

	i.PaidAmount = i.PaidAmount.Add(amount)
	if i.Outstanding().IsZero() {
		i.Status = StatusPaid
	}
	i.UpdatedAt = at.UTC()
	i.Version++
	return nil
}

// RevertPayment undoes a previously applied payment in place. Used only
// when the ledger transaction that carried the payment is removed by an
// administrative override.
func (i *Invoice) RevertPayment(amount types.Money, at time.Time) error {
	if amount.IsNegative() || amount.IsZero() {
		return apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}
	if amount.GreaterThan(i.PaidAmount) {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "revert exceeds paid amount").
			WithDetail("invoice_id", i.ID.String()).
			WithDetail("paid", i.PaidAmount.String()).
			WithDetail("amount", amount.String())
	}

	i.PaidAmount = i.PaidAmount.Sub(amount)
	if i.Outstanding().IsPositive() {
		i.Status = StatusOpen
	}
	i.UpdatedAt = at.UTC()
	i.Version++
	return nil
}
