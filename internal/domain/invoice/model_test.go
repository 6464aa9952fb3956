package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

func openInvoice(total string) *Invoice {
	return NewInvoice("INV-2026-0001", id.New(), time.Now().AddDate(0, 0, -30), nil, types.MustMoney(total))
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, openInvoice("100").Validate(ctx))

	noNumber := openInvoice("100")
	noNumber.Number = ""
	assert.True(t, apperror.IsCode(noNumber.Validate(ctx), apperror.CodeValidation))

	noCustomer := openInvoice("100")
	noCustomer.CustomerID = id.ID{}
	assert.True(t, apperror.IsCode(noCustomer.Validate(ctx), apperror.CodeValidation))

	negative := openInvoice("100")
	negative.Total = types.MustMoney("-1")
	assert.True(t, apperror.IsCode(negative.Validate(ctx), apperror.CodeValidation))
}

func TestApplyPayment_PartialKeepsOpen(t *testing.T) {
	inv := openInvoice("100.00")

	require.NoError(t, inv.ApplyPayment(types.MustMoney("40.00"), time.Now()))

	assert.Equal(t, StatusOpen, inv.Status)
	assert.True(t, inv.PaidAmount.Equal(types.MustMoney("40.00")))
	assert.True(t, inv.Outstanding().Equal(types.MustMoney("60.00")))
	assert.Equal(t, 2, inv.Version)
}

func TestApplyPayment_FullSettles(t *testing.T) {
	inv := openInvoice("100.00")

	require.NoError(t, inv.ApplyPayment(types.MustMoney("40.00"), time.Now()))
	require.NoError(t, inv.ApplyPayment(types.MustMoney("60.00"), time.Now()))

	assert.Equal(t, StatusPaid, inv.Status)
	assert.True(t, inv.Outstanding().IsZero())
}

func TestApplyPayment_OverpaymentRejected(t *testing.T) {
	inv := openInvoice("100.00")
	require.NoError(t, inv.ApplyPayment(types.MustMoney("70.00"), time.Now()))

	err := inv.ApplyPayment(types.MustMoney("30.01"), time.Now())
	assert.True(t, apperror.IsCode(err, apperror.CodeBusinessRule))

	// Rejection leaves the invoice unchanged.
	assert.True(t, inv.PaidAmount.Equal(types.MustMoney("70.00")))
	assert.Equal(t, StatusOpen, inv.Status)
}

func TestApplyPayment_NonPositiveRejected(t *testing.T) {
	inv := openInvoice("100.00")

	for _, amount := range []string{"0", "-10"} {
		err := inv.ApplyPayment(types.MustMoney(amount), time.Now())
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "amount %s", amount)
	}
}

func TestRevertPayment_ReopensSettledInvoice(t *testing.T) {
	inv := openInvoice("100.00")
	require.NoError(t, inv.ApplyPayment(types.MustMoney("100.00"), time.Now()))
	require.Equal(t, StatusPaid, inv.Status)

	require.NoError(t, inv.RevertPayment(types.MustMoney("100.00"), time.Now()))

	assert.Equal(t, StatusOpen, inv.Status)
	assert.True(t, inv.PaidAmount.IsZero())
	assert.True(t, inv.Outstanding().Equal(types.MustMoney("100.00")))
}

func TestRevertPayment_CappedByPaidAmount(t *testing.T) {
	inv := openInvoice("100.00")
	require.NoError(t, inv.ApplyPayment(types.MustMoney("20.00"), time.Now()))

	err := inv.RevertPayment(types.MustMoney("50.00"), time.Now())
	assert.True(t, apperror.IsCode(err, apperror.CodeBusinessRule))
	assert.True(t, inv.PaidAmount.Equal(types.MustMoney("20.00")))
}
