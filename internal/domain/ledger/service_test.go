package ledger_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/appctx"
	"tillbook/internal/core/id"
	"tillbook/internal/core/sequence"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/catalogs/customer"
	"tillbook/internal/domain/catalogs/employee"
	"tillbook/internal/domain/catalogs/partner"
	"tillbook/internal/domain/catalogs/warehouse"
	"tillbook/internal/domain/invoice"
	"tillbook/internal/domain/ledger"
	"tillbook/internal/domain/registers/stock"
	"tillbook/internal/domain/shift"
	"tillbook/internal/infrastructure/storage/memory"
)

// fixture wires the full service graph over the in-memory store.
type fixture struct {
	store    *memory.Store
	svc      *ledger.Service
	stockSvc *stock.Service
	shifts   *shift.Manager
	invoices *memory.InvoiceRepo

	customerID  id.ID
	partnerID   id.ID
	warehouseID id.ID
	employeeID  id.ID
	productID   id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	txManager := memory.NewTxManager(store)

	cust := customer.NewCustomer("CUST-001", "Toko Maju Jaya")
	require.NoError(t, store.Customers.Create(ctx, cust))

	part := partner.NewPartner("SUP-001", "PT Sumber Makmur", partner.TypeSupplier)
	require.NoError(t, store.Partners.Create(ctx, part))

	wh := warehouse.NewWarehouse("WH-MAIN", "Main Store")
	require.NoError(t, store.Warehouses.Create(ctx, wh))

	emp := employee.NewEmployee("EMP-001", "Dewi Lestari", employee.RoleCashier)
	require.NoError(t, store.Employees.Create(ctx, emp))

	stockSvc := stock.NewService(memory.NewStockRepo(store))
	shiftRepo := memory.NewShiftRepo(store)
	invoiceRepo := memory.NewInvoiceRepo(store)

	svc := ledger.NewService(
		memory.NewLedgerRepo(store),
		stockSvc,
		shiftRepo,
		store.Customers,
		store.Partners,
		invoiceRepo,
		sequence.NewMemoryGenerator(),
		txManager,
		memory.NewAuditRepo(store),
	)

	shifts := shift.NewManager(shiftRepo, store.Employees, store.Warehouses, txManager)

	return &fixture{
		store:       store,
		svc:         svc,
		stockSvc:    stockSvc,
		shifts:      shifts,
		invoices:    invoiceRepo,
		customerID:  cust.ID,
		partnerID:   part.ID,
		warehouseID: wh.ID,
		employeeID:  emp.ID,
		productID:   id.New(),
	}
}

func (f *fixture) receiveStock(t *testing.T, qty float64) {
	t.Helper()
	err := f.stockSvc.RecordPurchase(context.Background(), id.New(), time.Now(), []stock.Line{
		{ProductID: f.productID, WarehouseID: f.warehouseID, Quantity: types.NewQuantityFromFloat64(qty)},
	})
	require.NoError(t, err)
}

func (f *fixture) createInvoice(t *testing.T, total string, dueDate *time.Time) *invoice.Invoice {
	t.Helper()
	inv := invoice.NewInvoice(
		fmt.Sprintf("INV-%s", id.New()),
		f.customerID,
		time.Now().AddDate(0, 0, -10),
		dueDate,
		types.MustMoney(total),
	)
	require.NoError(t, f.invoices.Create(context.Background(), inv))
	return inv
}

func adminContext() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:   "admin-1",
		Username: "admin",
		IsAdmin:  true,
	})
}

func TestCreate_GeneratesSequentialCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := time.Now().UTC().Format("20060102")

	first, err := f.svc.Create(ctx, ledger.CreateInput{
		Type:     ledger.TypeReceipt,
		Method:   ledger.MethodCash,
		Category: ledger.CategorySale,
		Amount:   types.MustMoney("150.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "REC-"+day+"-0001", first.Code)
	assert.Equal(t, ledger.StatusPending, first.Status)

	second, err := f.svc.Create(ctx, ledger.CreateInput{
		Type:     ledger.TypeReceipt,
		Method:   ledger.MethodCash,
		Category: ledger.CategorySale,
		Amount:   types.MustMoney("99.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "REC-"+day+"-0002", second.Code)

	payment, err := f.svc.Create(ctx, ledger.CreateInput{
		Type:     ledger.TypePayment,
		Method:   ledger.MethodBankTransfer,
		Category: ledger.CategoryExpense,
		Amount:   types.MustMoney("20.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "PAY-"+day+"-0001", payment.Code, "payments run their own series")
}

func TestCreate_ExplicitCodeKept(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.Create(context.Background(), ledger.CreateInput{
		Type:     ledger.TypeReceipt,
		Method:   ledger.MethodCash,
		Category: ledger.CategoryOther,
		Amount:   types.MustMoney("10"),
		Code:     "REC-MIGRATED-0007",
	})
	require.NoError(t, err)
	assert.Equal(t, "REC-MIGRATED-0007", got.Code)

	_, err = f.svc.Create(context.Background(), ledger.CreateInput{
		Type:     ledger.TypeReceipt,
		Method:   ledger.MethodCash,
		Category: ledger.CategoryOther,
		Amount:   types.MustMoney("10"),
		Code:     "REC-MIGRATED-0007",
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicateCode))
}

func TestCreate_RejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)

	for _, amount := range []string{"0", "-5.00"} {
		_, err := f.svc.Create(context.Background(), ledger.CreateInput{
			Type:     ledger.TypeReceipt,
			Method:   ledger.MethodCash,
			Category: ledger.CategorySale,
			Amount:   types.MustMoney(amount),
		})
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "amount %s", amount)
	}
}

func TestCreate_MissingReferenceFailsFast(t *testing.T) {
	f := newFixture(t)
	missing := id.New()

	tests := []struct {
		name  string
		input ledger.CreateInput
	}{
		{
			name: "customer",
			input: ledger.CreateInput{
				Type: ledger.TypeReceipt, Method: ledger.MethodCash,
				Category: ledger.CategorySale, Amount: types.MustMoney("10"),
				CustomerID: &missing,
			},
		},
		{
			name: "partner",
			input: ledger.CreateInput{
				Type: ledger.TypePayment, Method: ledger.MethodBankTransfer,
				Category: ledger.CategoryPurchase, Amount: types.MustMoney("10"),
				PartnerID: &missing,
			},
		},
		{
			name: "invoice",
			input: ledger.CreateInput{
				Type: ledger.TypeReceipt, Method: ledger.MethodCash,
				Category: ledger.CategoryIncome, Amount: types.MustMoney("10"),
				InvoiceID: &missing,
			},
		},
		{
			name: "shift",
			input: ledger.CreateInput{
				Type: ledger.TypeReceipt, Method: ledger.MethodCash,
				Category: ledger.CategorySale, Amount: types.MustMoney("10"),
				ShiftID: &missing,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.input)
			assert.True(t, apperror.IsCode(err, apperror.CodeReferenceNotFound), "got %v", err)
		})
	}

	// Nothing was persisted by any of the rejected creates.
	result, err := f.svc.List(context.Background(), ledger.Filter{})
	require.NoError(t, err)
	assert.Zero(t, result.TotalCount)
}

func TestCreate_ClosedShiftRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sh, err := f.shifts.Open(ctx, f.employeeID, f.warehouseID, types.MustMoney("100"))
	require.NoError(t, err)
	_, err = f.shifts.Close(ctx, sh.ID, types.MustMoney("100"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, ledger.CreateInput{
		Type:     ledger.TypeReceipt,
		Method:   ledger.MethodCash,
		Category: ledger.CategorySale,
		Amount:   types.MustMoney("25"),
		ShiftID:  &sh.ID,
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeShiftClosed))
}

func TestCreate_SaleRecordsStockMovements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receiveStock(t, 10)

	_, err := f.svc.Create(ctx, ledger.CreateInput{
		Type:     ledger.TypeReceipt,
		Method:   ledger.MethodCash,
		Category: ledger.CategorySale,
		Amount:   types.MustMoney("40"),
		Complete: true,
		StockLines: []stock.Line{
			{ProductID: f.productID, WarehouseID: f.warehouseID, Quantity: types.NewQuantityFromFloat64(4)},
		},
	})
	require.NoError(t, err)

	balance, err := f.stockSvc.GetBalance(ctx, f.productID, f.warehouseID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(6), balance.Quantity)
}

func TestCreate_InsufficientStockLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receiveStock(t, 3)

	_, err := f.svc.Create(ctx, ledger.CreateInput{
		Type:     ledger.TypeReceipt,
		Method:   ledger.MethodCash,
		Category: ledger.CategorySale,
		Amount:   types.MustMoney("50"),
		Complete: true,
		StockLines: []stock.Line{
			{ProductID: f.productID, WarehouseID: f.warehouseID, Quantity: types.NewQuantityFromFloat64(5)},
		},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	// The rejected sale rolled back: no transaction, balance untouched.
	result, err := f.svc.List(ctx, ledger.Filter{})
	require.NoError(t, err)
	assert.Zero(t, result.TotalCount)

	balance, err := f.stockSvc.GetBalance(ctx, f.productID, f.warehouseID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(3), balance.Quantity)
}

func TestCreate_StockLinesRequireMovingCategory(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), ledger.CreateInput{
		Type:     ledger.TypeReceipt,
		Method:   ledger.MethodCash,
		Category: ledger.CategoryIncome,
		Amount:   types.MustMoney("10"),
		StockLines: []stock.Line{
			{ProductID: f.productID, WarehouseID: f.warehouseID, Quantity: types.NewQuantityFromFloat64(1)},
		},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreate_CompletedReceiptAppliesInvoicePayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.createInvoice(t, "100.00", nil)

	_, err := f.svc.Create(ctx, ledger.CreateInput{
		Type:       ledger.TypeReceipt,
		Method:     ledger.MethodBankTransfer,
		Category:   ledger.CategoryIncome,
		Amount:     types.MustMoney("40.00"),
		InvoiceID:  &inv.ID,
		CustomerID: &f.customerID,
		Complete:   true,
	})
	require.NoError(t, err)

	got, err := f.invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.Equal(types.MustMoney("40.00")))
	assert.Equal(t, invoice.StatusOpen, got.Status, "partial payment keeps the invoice open")

	_, err = f.svc.Create(ctx, ledger.CreateInput{
		Type:      ledger.TypeReceipt,
		Method:    ledger.MethodBankTransfer,
		Category:  ledger.CategoryIncome,
		Amount:    types.MustMoney("60.00"),
		InvoiceID: &inv.ID,
		Complete:  true,
	})
	require.NoError(t, err)

	got, err = f.invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusPaid, got.Status)
	assert.True(t, got.Outstanding().IsZero())
}

func TestCreate_OverpaymentRollsBackTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.createInvoice(t, "50.00", nil)

	_, err := f.svc.Create(ctx, ledger.CreateInput{
		Type:      ledger.TypeReceipt,
		Method:    ledger.MethodCash,
		Category:  ledger.CategoryIncome,
		Amount:    types.MustMoney("80.00"),
		InvoiceID: &inv.ID,
		Complete:  true,
	})
	require.Error(t, err)

	result, err := f.svc.List(ctx, ledger.Filter{})
	require.NoError(t, err)
	assert.Zero(t, result.TotalCount)

	got, err := f.invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.IsZero())
}

func TestTransition_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.svc.Create(ctx, ledger.CreateInput{
		Type:     ledger.TypeReceipt,
		Method:   ledger.MethodCash,
		Category: ledger.CategorySale,
		Amount:   types.MustMoney("30"),
	})
	require.NoError(t, err)

	completed, err := f.svc.Transition(ctx, pending.ID, ledger.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, completed.Status)
	require.NotNil(t, completed.TransactionDate)

	// Repeating the same transition is an idempotent no-op.
	again, err := f.svc.Transition(ctx, pending.ID, ledger.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, completed.Version, again.Version)

	// Any attempt to leave a terminal state fails.
	_, err = f.svc.Transition(ctx, pending.ID, ledger.StatusCanceled)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))

	// The target itself must be terminal.
	_, err = f.svc.Transition(ctx, pending.ID, ledger.StatusPending)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))
}

func TestTransition_CompletingReceiptAppliesPaymentOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.createInvoice(t, "100.00", nil)

	pending, err := f.svc.Create(ctx, ledger.CreateInput{
		Type:      ledger.TypeReceipt,
		Method:    ledger.MethodCash,
		Category:  ledger.CategoryIncome,
		Amount:    types.MustMoney("25.00"),
		InvoiceID: &inv.ID,
	})
	require.NoError(t, err)

	// A pending receipt has not touched the invoice yet.
	got, err := f.invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.IsZero())

	_, err = f.svc.Transition(ctx, pending.ID, ledger.StatusCompleted)
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, pending.ID, ledger.StatusCompleted)
	require.NoError(t, err)

	got, err = f.invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.Equal(types.MustMoney("25.00")), "idempotent repeat must not re-apply")
}

func TestUpdate_MutableFieldsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, ledger.CreateInput{
		Type:     ledger.TypeReceipt,
		Method:   ledger.MethodCash,
		Category: ledger.CategorySale,
		Amount:   types.MustMoney("30"),
	})
	require.NoError(t, err)

	notes := "recount after drawer audit"
	due := time.Now().AddDate(0, 0, 14).UTC()
	updated, err := f.svc.Update(ctx, created.ID, ledger.UpdateInput{Notes: &notes, DueDate: &due})
	require.NoError(t, err)

	assert.Equal(t, notes, updated.Notes)
	require.NotNil(t, updated.DueDate)
	assert.Equal(t, created.Code, updated.Code)
	assert.Equal(t, created.Version+1, updated.Version)
}

func TestDelete_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: "emp-1", Roles: []string{"cashier"},
	})

	created, err := f.svc.Create(ctx, ledger.CreateInput{
		Type:     ledger.TypeReceipt,
		Method:   ledger.MethodCash,
		Category: ledger.CategorySale,
		Amount:   types.MustMoney("10"),
	})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, created.ID, "entered twice")
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))

	_, err = f.svc.GetByID(ctx, created.ID)
	assert.NoError(t, err, "rejected delete must not remove the record")
}

func TestDelete_ReversesAllEffects(t *testing.T) {
	f := newFixture(t)
	ctx := adminContext()
	f.receiveStock(t, 10)
	inv := f.createInvoice(t, "100.00", nil)

	created, err := f.svc.Create(ctx, ledger.CreateInput{
		Type:      ledger.TypeReceipt,
		Method:    ledger.MethodCash,
		Category:  ledger.CategorySale,
		Amount:    types.MustMoney("40.00"),
		InvoiceID: &inv.ID,
		Complete:  true,
		StockLines: []stock.Line{
			{ProductID: f.productID, WarehouseID: f.warehouseID, Quantity: types.NewQuantityFromFloat64(4)},
		},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.ID, "entered twice"))

	_, err = f.svc.GetByID(ctx, created.ID)
	assert.True(t, apperror.IsNotFound(err))

	balance, err := f.stockSvc.GetBalance(ctx, f.productID, f.warehouseID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(10), balance.Quantity, "sold quantity returns to stock")

	got, err := f.invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.IsZero(), "applied payment is reverted")
	assert.Equal(t, invoice.StatusOpen, got.Status)

	audit := f.store.DeletionAudit()
	require.Len(t, audit, 1)
	assert.Equal(t, created.ID, audit[0].Transaction.ID)
	assert.Equal(t, "entered twice", audit[0].Reason)
	assert.Equal(t, "admin-1", audit[0].DeletedBy)
}

func TestDelete_FreesCodeForReuse(t *testing.T) {
	f := newFixture(t)
	ctx := adminContext()

	created, err := f.svc.Create(ctx, ledger.CreateInput{
		Type:     ledger.TypeReceipt,
		Method:   ledger.MethodCash,
		Category: ledger.CategoryOther,
		Amount:   types.MustMoney("10"),
		Code:     "REC-FIXED-0001",
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, created.ID, "wrong register"))

	_, err = f.svc.Create(ctx, ledger.CreateInput{
		Type:     ledger.TypeReceipt,
		Method:   ledger.MethodCash,
		Category: ledger.CategoryOther,
		Amount:   types.MustMoney("10"),
		Code:     "REC-FIXED-0001",
	})
	assert.NoError(t, err)
}

func TestList_FiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(ctx, ledger.CreateInput{
			Type:     ledger.TypeReceipt,
			Method:   ledger.MethodCash,
			Category: ledger.CategorySale,
			Amount:   types.MustMoney("10"),
		})
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, ledger.CreateInput{
		Type:     ledger.TypePayment,
		Method:   ledger.MethodBankTransfer,
		Category: ledger.CategoryExpense,
		Amount:   types.MustMoney("5"),
	})
	require.NoError(t, err)

	receipts, err := f.svc.List(ctx, ledger.Filter{Type: ledger.TypeReceipt})
	require.NoError(t, err)
	assert.Equal(t, int64(3), receipts.TotalCount)

	page, err := f.svc.List(ctx, ledger.Filter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.TotalCount)
	assert.Len(t, page.Items, 2)
}
