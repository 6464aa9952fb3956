package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillbook/internal/core/apperror"
	"tillbook/internal/domain"
	"tillbook/internal/domain/catalogs/customer"
)

func newCustomerRepo() *CatalogRepo[customer.Customer, *customer.Customer] {
	return NewCatalogRepo[customer.Customer, *customer.Customer]("customer")
}

func TestCatalogRepo_CreateAndGet(t *testing.T) {
	repo := newCustomerRepo()
	ctx := context.Background()

	c := customer.NewCustomer("CUST-001", "Toko Maju Jaya")
	require.NoError(t, repo.Create(ctx, c))

	byID, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Toko Maju Jaya", byID.Name)

	byCode, err := repo.GetByCode(ctx, "CUST-001")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byCode.ID)

	_, err = repo.GetByCode(ctx, "CUST-404")
	assert.True(t, apperror.IsNotFound(err))
}

func TestCatalogRepo_DuplicateCodeRejected(t *testing.T) {
	repo := newCustomerRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, customer.NewCustomer("CUST-001", "First")))

	err := repo.Create(ctx, customer.NewCustomer("CUST-001", "Second"))
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicate))
}

func TestCatalogRepo_UpdateVersionCheck(t *testing.T) {
	repo := newCustomerRepo()
	ctx := context.Background()

	c := customer.NewCustomer("CUST-001", "Toko Maju Jaya")
	require.NoError(t, repo.Create(ctx, c))

	first, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)

	first.Name = "Toko Maju Jaya Baru"
	require.NoError(t, repo.Update(ctx, first))

	// The second reader still holds the old version.
	second.Name = "Someone Else"
	err = repo.Update(ctx, second)
	assert.True(t, apperror.IsCode(err, apperror.CodeConcurrentModification))

	current, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Toko Maju Jaya Baru", current.Name)
	assert.Equal(t, 2, current.Version)
}

func TestCatalogRepo_UpdateCodeCollision(t *testing.T) {
	repo := newCustomerRepo()
	ctx := context.Background()

	a := customer.NewCustomer("CUST-001", "A")
	b := customer.NewCustomer("CUST-002", "B")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	got.Code = "CUST-001"
	err = repo.Update(ctx, got)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicate))
}

func TestCatalogRepo_SoftDelete(t *testing.T) {
	repo := newCustomerRepo()
	ctx := context.Background()

	c := customer.NewCustomer("CUST-001", "Toko Maju Jaya")
	require.NoError(t, repo.Create(ctx, c))
	require.NoError(t, repo.Delete(ctx, c.ID))

	// Deleted entities stop resolving as references.
	exists, err := repo.Exists(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ExistsByCode(ctx, "CUST-001")
	require.NoError(t, err)
	assert.False(t, exists)

	// The row itself survives for audit reads.
	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())

	visible, err := repo.List(ctx, domain.CatalogFilter{})
	require.NoError(t, err)
	assert.Zero(t, visible.TotalCount)

	all, err := repo.List(ctx, domain.CatalogFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.TotalCount)
}

func TestCatalogRepo_ListSearchAndOrder(t *testing.T) {
	repo := newCustomerRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, customer.NewCustomer("CUST-001", "Toko Maju Jaya")))
	require.NoError(t, repo.Create(ctx, customer.NewCustomer("CUST-002", "Warung Berkah")))
	require.NoError(t, repo.Create(ctx, customer.NewCustomer("WHOLESALE-01", "PT Grosir Nusantara")))

	found, err := repo.List(ctx, domain.CatalogFilter{Search: "toko"})
	require.NoError(t, err)
	require.Equal(t, int64(1), found.TotalCount)
	assert.Equal(t, "CUST-001", found.Items[0].Code)

	byCode, err := repo.List(ctx, domain.CatalogFilter{OrderBy: "-code"})
	require.NoError(t, err)
	require.Len(t, byCode.Items, 3)
	assert.Equal(t, "WHOLESALE-01", byCode.Items[0].Code)

	page, err := repo.List(ctx, domain.CatalogFilter{Limit: 2, Offset: 2, OrderBy: "code"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "WHOLESALE-01", page.Items[0].Code)
}
