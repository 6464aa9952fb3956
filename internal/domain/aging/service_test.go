package aging_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/aging"
	"tillbook/internal/domain/catalogs/customer"
	"tillbook/internal/domain/invoice"
	"tillbook/internal/infrastructure/storage/memory"
)

var asOf = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func setupAging(t *testing.T) (*memory.Store, *aging.Service) {
	t.Helper()
	store := memory.NewStore()
	return store, aging.NewService(memory.NewAgingRepo(store), nil)
}

func addCustomer(t *testing.T, store *memory.Store, code, name string) id.ID {
	t.Helper()
	c := customer.NewCustomer(code, name)
	require.NoError(t, store.Customers.Create(context.Background(), c))
	return c.ID
}

// addInvoice records an invoice due the given number of days before asOf.
// Negative daysOverdue means the due date is still in the future.
func addInvoice(t *testing.T, store *memory.Store, customerID id.ID, total string, daysOverdue int) *invoice.Invoice {
	t.Helper()
	due := asOf.AddDate(0, 0, -daysOverdue)
	inv := invoice.NewInvoice("INV-"+id.New().String(), customerID, asOf.AddDate(0, -6, 0), &due, types.MustMoney(total))
	require.NoError(t, memory.NewInvoiceRepo(store).Create(context.Background(), inv))
	return inv
}

func addInvoiceNoDueDate(t *testing.T, store *memory.Store, customerID id.ID, total string) *invoice.Invoice {
	t.Helper()
	inv := invoice.NewInvoice("INV-"+id.New().String(), customerID, asOf.AddDate(0, -1, 0), nil, types.MustMoney(total))
	require.NoError(t, memory.NewInvoiceRepo(store).Create(context.Background(), inv))
	return inv
}

func TestBuckets_IndexEdges(t *testing.T) {
	buckets, err := aging.NewBuckets(nil)
	require.NoError(t, err)

	day := func(overdue int) *time.Time {
		d := asOf.AddDate(0, 0, -overdue)
		return &d
	}

	tests := []struct {
		name    string
		dueDate *time.Time
		want    int
	}{
		{"no due date", nil, 0},
		{"due in the future", day(-10), 0},
		{"due today", day(0), 0},
		{"one day overdue", day(1), 1},
		{"boundary 30", day(30), 1},
		{"boundary 31", day(31), 2},
		{"boundary 60", day(60), 2},
		{"boundary 61", day(61), 3},
		{"boundary 90", day(90), 3},
		{"boundary 91", day(91), 4},
		{"deep overdue", day(400), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buckets.Index(tt.dueDate, asOf))
		})
	}
}

func TestBuckets_DefaultLabels(t *testing.T) {
	buckets, err := aging.NewBuckets(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"current", "1-30", "31-60", "61-90", "91+"}, buckets.Labels())
	assert.Equal(t, 5, buckets.Count())
}

func TestBuckets_CustomBoundaries(t *testing.T) {
	buckets, err := aging.NewBuckets([]int{7, 14})
	require.NoError(t, err)
	assert.Equal(t, []string{"current", "1-7", "8-14", "15+"}, buckets.Labels())

	day := asOf.AddDate(0, 0, -10)
	assert.Equal(t, 2, buckets.Index(&day, asOf))
}

func TestBuckets_RejectsBadBoundaries(t *testing.T) {
	for _, boundaries := range [][]int{
		{30, 30},
		{60, 30},
		{0, 30},
		{-5},
	} {
		_, err := aging.NewBuckets(boundaries)
		assert.True(t, apperror.IsCode(err, apperror.CodeBucketConfig), "boundaries %v", boundaries)
	}
}

func TestAgeReceivables_DistributesAcrossBuckets(t *testing.T) {
	store, svc := setupAging(t)
	custID := addCustomer(t, store, "CUST-001", "Toko Maju Jaya")

	addInvoice(t, store, custID, "100.00", -5) // current
	addInvoice(t, store, custID, "200.00", 15) // 1-30
	addInvoice(t, store, custID, "300.00", 45) // 31-60
	addInvoice(t, store, custID, "400.00", 75) // 61-90
	addInvoice(t, store, custID, "500.00", 120)

	report, err := svc.AgeReceivables(context.Background(), asOf, aging.Options{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	assert.Equal(t, "CUST-001", row.CustomerCode)
	want := []string{"100", "200", "300", "400", "500"}
	require.Len(t, row.Buckets, len(want))
	for i, w := range want {
		assert.True(t, row.Buckets[i].Equal(types.MustMoney(w)), "bucket %d: got %s", i, row.Buckets[i])
	}
	assert.True(t, row.Total.Equal(types.MustMoney("1500")))
	assert.True(t, report.GrandTotal.Equal(types.MustMoney("1500")))
}

func TestAgeReceivables_NoDueDateIsCurrent(t *testing.T) {
	store, svc := setupAging(t)
	custID := addCustomer(t, store, "CUST-001", "Toko Maju Jaya")
	addInvoiceNoDueDate(t, store, custID, "250.00")

	report, err := svc.AgeReceivables(context.Background(), asOf, aging.Options{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.True(t, report.Rows[0].Buckets[0].Equal(types.MustMoney("250.00")))
}

func TestAgeReceivables_OnlyOutstandingPortionCounted(t *testing.T) {
	store, svc := setupAging(t)
	custID := addCustomer(t, store, "CUST-001", "Toko Maju Jaya")

	inv := addInvoice(t, store, custID, "100.00", 40)
	_, err := memory.NewInvoiceRepo(store).ApplyPayment(context.Background(), inv.ID, types.MustMoney("30.00"), asOf)
	require.NoError(t, err)

	paid := addInvoice(t, store, custID, "500.00", 40)
	_, err = memory.NewInvoiceRepo(store).ApplyPayment(context.Background(), paid.ID, types.MustMoney("500.00"), asOf)
	require.NoError(t, err)

	report, err := svc.AgeReceivables(context.Background(), asOf, aging.Options{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.True(t, report.GrandTotal.Equal(types.MustMoney("70.00")), "got %s", report.GrandTotal)
}

func TestAgeReceivables_InvoicesIssuedAfterAsOfIgnored(t *testing.T) {
	store, svc := setupAging(t)
	custID := addCustomer(t, store, "CUST-001", "Toko Maju Jaya")

	future := invoice.NewInvoice("INV-FUTURE", custID, asOf.AddDate(0, 0, 10), nil, types.MustMoney("900"))
	require.NoError(t, memory.NewInvoiceRepo(store).Create(context.Background(), future))

	report, err := svc.AgeReceivables(context.Background(), asOf, aging.Options{})
	require.NoError(t, err)
	assert.Empty(t, report.Rows)
	assert.True(t, report.GrandTotal.IsZero())
}

func TestAgeReceivables_RowsSortedAndTotaled(t *testing.T) {
	store, svc := setupAging(t)
	bID := addCustomer(t, store, "CUST-002", "Warung Berkah")
	aID := addCustomer(t, store, "CUST-001", "Toko Maju Jaya")

	addInvoice(t, store, bID, "50.00", 10)
	addInvoice(t, store, aID, "80.00", 40)

	report, err := svc.AgeReceivables(context.Background(), asOf, aging.Options{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "CUST-001", report.Rows[0].CustomerCode)
	assert.Equal(t, "CUST-002", report.Rows[1].CustomerCode)

	assert.True(t, report.Totals[1].Equal(types.MustMoney("50.00")))
	assert.True(t, report.Totals[2].Equal(types.MustMoney("80.00")))
	assert.True(t, report.GrandTotal.Equal(types.MustMoney("130.00")))
}

func TestAgeReceivables_CustomerFilter(t *testing.T) {
	store, svc := setupAging(t)
	wholesaleID := addCustomer(t, store, "WHOLESALE-01", "PT Grosir Nusantara")
	retailID := addCustomer(t, store, "CUST-001", "Toko Maju Jaya")

	addInvoice(t, store, wholesaleID, "100.00", 10)
	addInvoice(t, store, retailID, "200.00", 10)

	report, err := svc.AgeReceivables(context.Background(), asOf, aging.Options{
		CustomerFilter: `code.startsWith("WHOLESALE")`,
	})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "WHOLESALE-01", report.Rows[0].CustomerCode)

	report, err = svc.AgeReceivables(context.Background(), asOf, aging.Options{
		CustomerFilter: `name.contains("Maju") || code == "X"`,
	})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "CUST-001", report.Rows[0].CustomerCode)
}

func TestAgeReceivables_InvalidFilterRejected(t *testing.T) {
	_, svc := setupAging(t)

	_, err := svc.AgeReceivables(context.Background(), asOf, aging.Options{
		CustomerFilter: `code.startsWith(`,
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.AgeReceivables(context.Background(), asOf, aging.Options{
		CustomerFilter: `code + name`,
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "non-boolean expression")
}

func TestAgeReceivables_ReportMetadata(t *testing.T) {
	_, svc := setupAging(t)

	report, err := svc.AgeReceivables(context.Background(), asOf, aging.Options{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC), report.AsOf)
	assert.Equal(t, []string{"current", "1-30", "31-60", "61-90", "91+"}, report.Labels)
	require.Len(t, report.Totals, 5)
	for _, total := range report.Totals {
		assert.True(t, total.IsZero())
	}
}

// stubCache records cache traffic so the caching contract is observable.
type stubCache struct {
	data map[string][]byte
	sets int
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
	return nil
}

func TestAgeReceivables_CachesPerParameterSet(t *testing.T) {
	store := memory.NewStore()
	reportCache := &stubCache{data: make(map[string][]byte)}
	svc := aging.NewService(memory.NewAgingRepo(store), reportCache)

	custID := addCustomer(t, store, "CUST-001", "Toko Sinar")
	addInvoice(t, store, custID, "150.00", 45)

	first, err := svc.AgeReceivables(context.Background(), asOf, aging.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, reportCache.sets)

	// Same parameters hit the cache even after the data changes.
	addInvoice(t, store, custID, "999.00", 10)
	second, err := svc.AgeReceivables(context.Background(), asOf, aging.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, reportCache.sets)
	assert.True(t, first.GrandTotal.Equal(second.GrandTotal))

	// Different boundaries are a separate entry and see the new invoice.
	third, err := svc.AgeReceivables(context.Background(), asOf, aging.Options{Boundaries: []int{7, 14}})
	require.NoError(t, err)
	assert.Equal(t, 2, reportCache.sets)
	assert.True(t, third.GrandTotal.Equal(types.MustMoney("1149.00")))
}

func TestReportCacheKey_Parameters(t *testing.T) {
	base := aging.ReportCacheKey(asOf, aging.Options{})
	assert.Equal(t, base, aging.ReportCacheKey(asOf.Add(3*time.Hour), aging.Options{}), "same day shares a key")
	assert.NotEqual(t, base, aging.ReportCacheKey(asOf.AddDate(0, 0, 1), aging.Options{}))
	assert.NotEqual(t, base, aging.ReportCacheKey(asOf, aging.Options{Boundaries: []int{7, 14}}))
	assert.NotEqual(t, base, aging.ReportCacheKey(asOf, aging.Options{CustomerFilter: `code == "X"`}))
	assert.NotEqual(t, base, aging.ReportCacheKey(asOf, aging.Options{IncludeZeroBalance: true}))
}
