package shift_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/catalogs/employee"
	"tillbook/internal/domain/catalogs/warehouse"
	"tillbook/internal/domain/shift"
	"tillbook/internal/infrastructure/storage/memory"
)

type managerFixture struct {
	manager     *shift.Manager
	employeeID  id.ID
	warehouseID id.ID
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()

	emp := employee.NewEmployee("EMP-001", "Dewi Lestari", employee.RoleCashier)
	require.NoError(t, store.Employees.Create(ctx, emp))

	wh := warehouse.NewWarehouse("WH-MAIN", "Main Store")
	require.NoError(t, store.Warehouses.Create(ctx, wh))

	return &managerFixture{
		manager: shift.NewManager(
			memory.NewShiftRepo(store),
			store.Employees,
			store.Warehouses,
			memory.NewTxManager(store),
		),
		employeeID:  emp.ID,
		warehouseID: wh.ID,
	}
}

func TestOpenClose_Lifecycle(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	opened, err := f.manager.Open(ctx, f.employeeID, f.warehouseID, types.MustMoney("100.00"))
	require.NoError(t, err)
	assert.Equal(t, shift.StatusOpen, opened.Status)
	assert.True(t, opened.IsOpen())
	assert.Nil(t, opened.EndTime)
	assert.Nil(t, opened.ClosingCash)

	current, err := f.manager.GetOpen(ctx, f.employeeID, f.warehouseID)
	require.NoError(t, err)
	assert.Equal(t, opened.ID, current.ID)

	closed, err := f.manager.Close(ctx, opened.ID, types.MustMoney("342.50"))
	require.NoError(t, err)
	assert.Equal(t, shift.StatusClosed, closed.Status)
	require.NotNil(t, closed.EndTime)
	require.NotNil(t, closed.ClosingCash)
	assert.True(t, closed.ClosingCash.Equal(types.MustMoney("342.50")))
	assert.Equal(t, opened.Version+1, closed.Version)

	_, err = f.manager.GetOpen(ctx, f.employeeID, f.warehouseID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestOpen_SecondOpenForSamePairRejected(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	_, err := f.manager.Open(ctx, f.employeeID, f.warehouseID, types.MustMoney("50"))
	require.NoError(t, err)

	_, err = f.manager.Open(ctx, f.employeeID, f.warehouseID, types.MustMoney("50"))
	assert.True(t, apperror.IsCode(err, apperror.CodeShiftAlreadyOpen))
}

func TestOpen_ReopenAfterCloseAllowed(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	first, err := f.manager.Open(ctx, f.employeeID, f.warehouseID, types.MustMoney("50"))
	require.NoError(t, err)
	_, err = f.manager.Close(ctx, first.ID, types.MustMoney("75"))
	require.NoError(t, err)

	second, err := f.manager.Open(ctx, f.employeeID, f.warehouseID, types.MustMoney("75"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestOpen_ValidatesReferencesAndCash(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	_, err := f.manager.Open(ctx, id.New(), f.warehouseID, types.MustMoney("10"))
	assert.True(t, apperror.IsCode(err, apperror.CodeReferenceNotFound))

	_, err = f.manager.Open(ctx, f.employeeID, id.New(), types.MustMoney("10"))
	assert.True(t, apperror.IsCode(err, apperror.CodeReferenceNotFound))

	_, err = f.manager.Open(ctx, f.employeeID, f.warehouseID, types.MustMoney("-1"))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestClose_DoubleCloseRejected(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	opened, err := f.manager.Open(ctx, f.employeeID, f.warehouseID, types.MustMoney("100"))
	require.NoError(t, err)

	_, err = f.manager.Close(ctx, opened.ID, types.MustMoney("120"))
	require.NoError(t, err)

	_, err = f.manager.Close(ctx, opened.ID, types.MustMoney("130"))
	assert.True(t, apperror.IsCode(err, apperror.CodeShiftNotOpen))
}

func TestClose_NegativeClosingCashRejected(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	opened, err := f.manager.Open(ctx, f.employeeID, f.warehouseID, types.MustMoney("100"))
	require.NoError(t, err)

	_, err = f.manager.Close(ctx, opened.ID, types.MustMoney("-5"))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	current, err := f.manager.GetByID(ctx, opened.ID)
	require.NoError(t, err)
	assert.True(t, current.IsOpen())
}

func TestClose_ConcurrentAttemptsSingleWinner(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	opened, err := f.manager.Open(ctx, f.employeeID, f.warehouseID, types.MustMoney("100"))
	require.NoError(t, err)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.manager.Close(ctx, opened.ID, types.MustMoney("150"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.True(t, apperror.IsCode(err, apperror.CodeShiftNotOpen))
		lost++
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, attempts-1, lost)
}

func TestClose_HookRunsAfterSuccess(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	var hookedID id.ID
	f.manager.WithCloseHook(func(ctx context.Context, s *shift.Shift) {
		hookedID = s.ID
	})

	opened, err := f.manager.Open(ctx, f.employeeID, f.warehouseID, types.MustMoney("100"))
	require.NoError(t, err)

	_, err = f.manager.Close(ctx, opened.ID, types.MustMoney("100"))
	require.NoError(t, err)
	assert.Equal(t, opened.ID, hookedID)

	// A failed close must not fire the hook again.
	hookedID = id.ID{}
	_, err = f.manager.Close(ctx, opened.ID, types.MustMoney("100"))
	require.Error(t, err)
	assert.Equal(t, id.ID{}, hookedID)
}

func TestList_FiltersByStatus(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	first, err := f.manager.Open(ctx, f.employeeID, f.warehouseID, types.MustMoney("10"))
	require.NoError(t, err)
	_, err = f.manager.Close(ctx, first.ID, types.MustMoney("10"))
	require.NoError(t, err)
	_, err = f.manager.Open(ctx, f.employeeID, f.warehouseID, types.MustMoney("10"))
	require.NoError(t, err)

	open, err := f.manager.List(ctx, shift.Filter{Status: shift.StatusOpen})
	require.NoError(t, err)
	assert.Equal(t, int64(1), open.TotalCount)

	all, err := f.manager.List(ctx, shift.Filter{EmployeeID: &f.employeeID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.TotalCount)
}
