package invoice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/catalogs/customer"
	"tillbook/internal/domain/invoice"
	"tillbook/internal/infrastructure/storage/memory"
)

func newInvoiceService(t *testing.T) (*invoice.Service, *memory.InvoiceRepo, id.ID) {
	t.Helper()

	store := memory.NewStore()
	cust := customer.NewCustomer("CUST-001", "Toko Maju Jaya")
	require.NoError(t, store.Customers.Create(context.Background(), cust))

	repo := memory.NewInvoiceRepo(store)
	svc := invoice.NewService(repo, store.Customers, memory.NewTxManager(store))
	return svc, repo, cust.ID
}

func TestCreate_RegistersOpenInvoice(t *testing.T) {
	svc, _, customerID := newInvoiceService(t)
	ctx := context.Background()

	due := time.Now().AddDate(0, 0, 30)
	inv, err := svc.Create(ctx, "INV-2026-0001", customerID, time.Now(), &due, types.MustMoney("1250.00"))
	require.NoError(t, err)

	assert.Equal(t, invoice.StatusOpen, inv.Status)
	assert.True(t, inv.PaidAmount.IsZero())
	assert.True(t, inv.Outstanding().Equal(types.MustMoney("1250.00")))

	got, err := svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0001", got.Number)
}

func TestCreate_UnknownCustomerRejected(t *testing.T) {
	svc, _, _ := newInvoiceService(t)

	_, err := svc.Create(context.Background(), "INV-2026-0001", id.New(), time.Now(), nil, types.MustMoney("10"))
	assert.True(t, apperror.IsCode(err, apperror.CodeReferenceNotFound))
}

func TestCreate_ValidationFailures(t *testing.T) {
	svc, _, customerID := newInvoiceService(t)

	_, err := svc.Create(context.Background(), "", customerID, time.Now(), nil, types.MustMoney("10"))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.Create(context.Background(), "INV-X", customerID, time.Now(), nil, types.MustMoney("-10"))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestList_OutstandingOnly(t *testing.T) {
	svc, repo, customerID := newInvoiceService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "INV-0001", customerID, time.Now(), nil, types.MustMoney("100"))
	require.NoError(t, err)

	settled, err := svc.Create(ctx, "INV-0002", customerID, time.Now(), nil, types.MustMoney("50"))
	require.NoError(t, err)

	// Settle the second invoice through the repository, the way a completed
	// receipt would.
	_, err = repo.ApplyPayment(ctx, settled.ID, types.MustMoney("50"), time.Now())
	require.NoError(t, err)

	result, err := svc.List(ctx, invoice.Filter{OutstandingOnly: true})
	require.NoError(t, err)
	require.Equal(t, int64(1), result.TotalCount)
	assert.Equal(t, "INV-0001", result.Items[0].Number)

	paid, err := svc.List(ctx, invoice.Filter{Status: invoice.StatusPaid})
	require.NoError(t, err)
	assert.Equal(t, int64(1), paid.TotalCount)
}
