package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/types"
)

func TestStatusMachine(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusCanceled, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusPending, false},
		{StatusCompleted, StatusCanceled, false},
		{StatusCanceled, StatusCompleted, false},
		{StatusFailed, StatusPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTransition_SetsTransactionDateOnCompletion(t *testing.T) {
	tr := NewTransaction(TypeReceipt, MethodCash, CategorySale, types.MustMoney("10"))
	at := time.Date(2026, 5, 21, 14, 30, 0, 0, time.UTC)

	if err := tr.Transition(StatusCompleted, at); err != nil {
		t.Fatal(err)
	}
	if tr.TransactionDate == nil || !tr.TransactionDate.Equal(at) {
		t.Fatalf("transaction date = %v, want %v", tr.TransactionDate, at)
	}
	assert.Equal(t, 2, tr.Version)

	// Same-status repeat is a no-op, not an error.
	if err := tr.Transition(StatusCompleted, at.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 2, tr.Version)

	err := tr.Transition(StatusCanceled, at)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))
}

func TestValidate_EnumsAndAmount(t *testing.T) {
	ctx := context.Background()

	valid := NewTransaction(TypeReceipt, MethodCash, CategorySale, types.MustMoney("10"))
	assert.NoError(t, valid.Validate(ctx))

	tests := []struct {
		name   string
		mutate func(*Transaction)
	}{
		{"bad type", func(tr *Transaction) { tr.Type = "transfer" }},
		{"bad method", func(tr *Transaction) { tr.Method = "check" }},
		{"bad category", func(tr *Transaction) { tr.Category = "misc" }},
		{"negative amount", func(tr *Transaction) { tr.Amount = types.MustMoney("-1") }},
		{"completed without date", func(tr *Transaction) { tr.Status = StatusCompleted }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransaction(TypeReceipt, MethodCash, CategorySale, types.MustMoney("10"))
			tt.mutate(tr)
			assert.True(t, apperror.IsCode(tr.Validate(ctx), apperror.CodeValidation))
		})
	}
}

func TestEffectiveDate(t *testing.T) {
	tr := NewTransaction(TypeReceipt, MethodCash, CategorySale, types.MustMoney("10"))
	assert.Equal(t, tr.CreatedAt, tr.EffectiveDate())

	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	tr.TransactionDate = &day
	assert.Equal(t, day, tr.EffectiveDate())
}

func TestTypeHelpers(t *testing.T) {
	assert.Equal(t, "REC", TypeReceipt.CodePrefix())
	assert.Equal(t, "PAY", TypePayment.CodePrefix())
	assert.Equal(t, int64(1), TypeReceipt.Sign())
	assert.Equal(t, int64(-1), TypePayment.Sign())
}
