package reconciliation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/appctx"
	"tillbook/internal/core/id"
	"tillbook/internal/core/sequence"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/ledger"
	"tillbook/internal/domain/reconciliation"
	"tillbook/internal/domain/registers/stock"
	"tillbook/internal/domain/shift"
	"tillbook/internal/infrastructure/storage/memory"
)

type summaryFixture struct {
	store      *memory.Store
	svc        *reconciliation.Service
	ledgerRepo *memory.LedgerRepo
	shiftRepo  *memory.ShiftRepo

	shiftID id.ID
}

// newSummaryFixture opens a shift directly through the repository; the
// reconciliation engine only reads shift and ledger rows.
func newSummaryFixture(t *testing.T) *summaryFixture {
	t.Helper()

	store := memory.NewStore()
	ledgerRepo := memory.NewLedgerRepo(store)
	shiftRepo := memory.NewShiftRepo(store)

	sh := shift.NewShift(id.New(), id.New(), types.MustMoney("100.00"))
	require.NoError(t, shiftRepo.CreateOpen(context.Background(), sh))

	return &summaryFixture{
		store:      store,
		svc:        reconciliation.NewService(shiftRepo, ledgerRepo, nil),
		ledgerRepo: ledgerRepo,
		shiftRepo:  shiftRepo,
		shiftID:    sh.ID,
	}
}

func (f *summaryFixture) addTransaction(t *testing.T, txType ledger.Type, method ledger.Method, amount string, status ledger.Status) {
	t.Helper()

	tr := ledger.NewTransaction(txType, method, ledger.CategorySale, types.MustMoney(amount))
	tr.Code = "T-" + id.New().String()
	tr.ShiftID = &f.shiftID
	if status != ledger.StatusPending {
		now := time.Now().UTC()
		tr.Status = status
		tr.TransactionDate = &now
	}
	require.NoError(t, f.ledgerRepo.Create(context.Background(), tr))
}

func (f *summaryFixture) closeShift(t *testing.T, closingCash string) {
	t.Helper()
	_, err := f.shiftRepo.Close(context.Background(), f.shiftID, types.MustMoney(closingCash), time.Now())
	require.NoError(t, err)
}

func TestSummarize_OpenShiftRejected(t *testing.T) {
	f := newSummaryFixture(t)

	_, err := f.svc.Summarize(context.Background(), f.shiftID)
	assert.True(t, apperror.IsCode(err, apperror.CodeShiftStillOpen))
}

func TestSummarize_UnknownShift(t *testing.T) {
	f := newSummaryFixture(t)

	_, err := f.svc.Summarize(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestSummarize_CashMath(t *testing.T) {
	f := newSummaryFixture(t)

	// Completed: +200 cash, -50 cash, +75 card.
	f.addTransaction(t, ledger.TypeReceipt, ledger.MethodCash, "200.00", ledger.StatusCompleted)
	f.addTransaction(t, ledger.TypePayment, ledger.MethodCash, "50.00", ledger.StatusCompleted)
	f.addTransaction(t, ledger.TypeReceipt, ledger.MethodCreditCard, "75.00", ledger.StatusCompleted)

	// Excluded from every sum.
	f.addTransaction(t, ledger.TypeReceipt, ledger.MethodCash, "999.00", ledger.StatusCanceled)
	f.addTransaction(t, ledger.TypeReceipt, ledger.MethodCash, "999.00", ledger.StatusFailed)
	f.addTransaction(t, ledger.TypeReceipt, ledger.MethodCash, "999.00", ledger.StatusPending)

	f.closeShift(t, "245.00")

	summary, err := f.svc.Summarize(context.Background(), f.shiftID)
	require.NoError(t, err)

	// Expected cash: 100 opening + 200 - 50 = 250. Drawer held 245.
	assert.True(t, summary.OpeningCash.Equal(types.MustMoney("100.00")))
	assert.True(t, summary.ExpectedCash.Equal(types.MustMoney("250.00")), "got %s", summary.ExpectedCash)
	assert.True(t, summary.ActualCash.Equal(types.MustMoney("245.00")))
	assert.True(t, summary.Discrepancy.Equal(types.MustMoney("-5.00")), "got %s", summary.Discrepancy)

	assert.Equal(t, 3, summary.CompletedCount)
	assert.Equal(t, 1, summary.CanceledCount)
	assert.Equal(t, 1, summary.FailedCount)
	assert.Equal(t, 1, summary.PendingCount)
	assert.Equal(t, 6, summary.TotalCount)
}

func TestSummarize_ByMethodTotals(t *testing.T) {
	f := newSummaryFixture(t)

	f.addTransaction(t, ledger.TypeReceipt, ledger.MethodCash, "120.00", ledger.StatusCompleted)
	f.addTransaction(t, ledger.TypePayment, ledger.MethodCash, "20.00", ledger.StatusCompleted)
	f.addTransaction(t, ledger.TypeReceipt, ledger.MethodEWallet, "35.00", ledger.StatusCompleted)

	f.closeShift(t, "200.00")

	summary, err := f.svc.Summarize(context.Background(), f.shiftID)
	require.NoError(t, err)
	require.Len(t, summary.ByMethod, 2)

	byMethod := make(map[ledger.Method]reconciliation.MethodTotal, len(summary.ByMethod))
	for _, mt := range summary.ByMethod {
		byMethod[mt.Method] = mt
	}

	cash := byMethod[ledger.MethodCash]
	assert.Equal(t, 2, cash.Count)
	assert.True(t, cash.Receipts.Equal(types.MustMoney("120.00")))
	assert.True(t, cash.Payments.Equal(types.MustMoney("20.00")))
	assert.True(t, cash.Net.Equal(types.MustMoney("100.00")))

	wallet := byMethod[ledger.MethodEWallet]
	assert.Equal(t, 1, wallet.Count)
	assert.True(t, wallet.Net.Equal(types.MustMoney("35.00")))
}

func TestSummarize_EmptyShift(t *testing.T) {
	f := newSummaryFixture(t)
	f.closeShift(t, "100.00")

	summary, err := f.svc.Summarize(context.Background(), f.shiftID)
	require.NoError(t, err)

	assert.True(t, summary.ExpectedCash.Equal(types.MustMoney("100.00")), "no transactions leaves opening cash")
	assert.True(t, summary.Discrepancy.IsZero())
	assert.Zero(t, summary.TotalCount)
	assert.Empty(t, summary.ByMethod)
}

func TestSummarize_Deterministic(t *testing.T) {
	f := newSummaryFixture(t)
	f.addTransaction(t, ledger.TypeReceipt, ledger.MethodCash, "10.00", ledger.StatusCompleted)
	f.closeShift(t, "110.00")

	first, err := f.svc.Summarize(context.Background(), f.shiftID)
	require.NoError(t, err)
	second, err := f.svc.Summarize(context.Background(), f.shiftID)
	require.NoError(t, err)

	assert.True(t, first.ExpectedCash.Equal(second.ExpectedCash))
	assert.True(t, first.Discrepancy.Equal(second.Discrepancy))
	assert.Equal(t, first.CompletedCount, second.CompletedCount)
}

// stubCache records cache traffic so the caching contract is observable.
type stubCache struct {
	data map[string][]byte
	sets int
	dels int
}

func newStubCache() *stubCache {
	return &stubCache{data: make(map[string][]byte)}
}

func (c *stubCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, ok := c.data[key]
	return raw, ok, nil
}

func (c *stubCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.data[key] = value
	c.sets++
	return nil
}

func (c *stubCache) Del(ctx context.Context, key string) error {
	delete(c.data, key)
	c.dels++
	return nil
}

func TestSummarize_CachesAndInvalidates(t *testing.T) {
	store := memory.NewStore()
	ledgerRepo := memory.NewLedgerRepo(store)
	shiftRepo := memory.NewShiftRepo(store)
	reportCache := newStubCache()
	svc := reconciliation.NewService(shiftRepo, ledgerRepo, reportCache)

	sh := shift.NewShift(id.New(), id.New(), types.MustMoney("100"))
	require.NoError(t, shiftRepo.CreateOpen(context.Background(), sh))
	_, err := shiftRepo.Close(context.Background(), sh.ID, types.MustMoney("100"), time.Now())
	require.NoError(t, err)

	_, err = svc.Summarize(context.Background(), sh.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reportCache.sets)

	// Second run is served from the cache.
	_, err = svc.Summarize(context.Background(), sh.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reportCache.sets)

	svc.InvalidateSummary(context.Background(), sh.ID)
	assert.Equal(t, 1, reportCache.dels)

	_, err = svc.Summarize(context.Background(), sh.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reportCache.sets)
}

// overrideFixture wires the ledger service to the reconciliation cache the
// way the server assembly does, so post-close overrides are observable.
type overrideFixture struct {
	ledgerSvc *ledger.Service
	summaries *reconciliation.Service
	cache     *stubCache
	shiftRepo *memory.ShiftRepo

	shiftID id.ID
}

func newOverrideFixture(t *testing.T) *overrideFixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	txManager := memory.NewTxManager(store)
	ledgerRepo := memory.NewLedgerRepo(store)
	shiftRepo := memory.NewShiftRepo(store)
	reportCache := newStubCache()

	ledgerSvc := ledger.NewService(
		ledgerRepo,
		stock.NewService(memory.NewStockRepo(store)),
		shiftRepo,
		store.Customers,
		store.Partners,
		memory.NewInvoiceRepo(store),
		sequence.NewMemoryGenerator(),
		txManager,
		memory.NewAuditRepo(store),
	)
	summaries := reconciliation.NewService(shiftRepo, ledgerRepo, reportCache)
	ledgerSvc.WithShiftChangeHook(func(ctx context.Context, shiftID id.ID) {
		summaries.InvalidateSummary(ctx, shiftID)
	})

	sh := shift.NewShift(id.New(), id.New(), types.MustMoney("100.00"))
	require.NoError(t, shiftRepo.CreateOpen(ctx, sh))

	return &overrideFixture{
		ledgerSvc: ledgerSvc,
		summaries: summaries,
		cache:     reportCache,
		shiftRepo: shiftRepo,
		shiftID:   sh.ID,
	}
}

func (f *overrideFixture) createReceipt(t *testing.T, amount string) *ledger.Transaction {
	t.Helper()
	tr, err := f.ledgerSvc.Create(context.Background(), ledger.CreateInput{
		Type:     ledger.TypeReceipt,
		Method:   ledger.MethodCash,
		Category: ledger.CategoryIncome,
		Amount:   types.MustMoney(amount),
		ShiftID:  &f.shiftID,
	})
	require.NoError(t, err)
	return tr
}

func (f *overrideFixture) closeShift(t *testing.T, closingCash string) {
	t.Helper()
	_, err := f.shiftRepo.Close(context.Background(), f.shiftID, types.MustMoney(closingCash), time.Now())
	require.NoError(t, err)
}

func adminContext() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:   "admin-1",
		Username: "admin",
		IsAdmin:  true,
	})
}

func TestSummarize_RefreshedAfterAdminDelete(t *testing.T) {
	f := newOverrideFixture(t)
	ctx := context.Background()

	tr := f.createReceipt(t, "200.00")
	_, err := f.ledgerSvc.Transition(ctx, tr.ID, ledger.StatusCompleted)
	require.NoError(t, err)
	f.closeShift(t, "300.00")

	before, err := f.summaries.Summarize(ctx, f.shiftID)
	require.NoError(t, err)
	assert.True(t, before.ExpectedCash.Equal(types.MustMoney("300.00")))
	assert.Equal(t, 1, f.cache.sets)

	require.NoError(t, f.ledgerSvc.Delete(adminContext(), tr.ID, "entered in error"))

	after, err := f.summaries.Summarize(ctx, f.shiftID)
	require.NoError(t, err)
	assert.True(t, after.ExpectedCash.Equal(types.MustMoney("100.00")), "summary must reflect the deletion")
	assert.Equal(t, 0, after.CompletedCount)
	assert.Equal(t, 2, f.cache.sets, "second summary is recomputed, not served stale")
}

func TestSummarize_RefreshedAfterPostCloseTransition(t *testing.T) {
	f := newOverrideFixture(t)
	ctx := context.Background()

	tr := f.createReceipt(t, "50.00")
	f.closeShift(t, "150.00")

	before, err := f.summaries.Summarize(ctx, f.shiftID)
	require.NoError(t, err)
	assert.True(t, before.ExpectedCash.Equal(types.MustMoney("100.00")))
	assert.Equal(t, 1, before.PendingCount)

	// Completing a pending transaction after close drops the cached summary.
	_, err = f.ledgerSvc.Transition(ctx, tr.ID, ledger.StatusCompleted)
	require.NoError(t, err)

	after, err := f.summaries.Summarize(ctx, f.shiftID)
	require.NoError(t, err)
	assert.True(t, after.ExpectedCash.Equal(types.MustMoney("150.00")))
	assert.Equal(t, 1, after.CompletedCount)
	assert.Equal(t, 0, after.PendingCount)

	// Repeating the same terminal transition is a no-op and keeps the cache.
	dels := f.cache.dels
	_, err = f.ledgerSvc.Transition(ctx, tr.ID, ledger.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, dels, f.cache.dels)
}
