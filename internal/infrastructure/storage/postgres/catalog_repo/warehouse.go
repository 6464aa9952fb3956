package catalog_repo

import (
	"tillbook/internal/domain/catalogs/warehouse"
	"tillbook/internal/infrastructure/storage/postgres"
)

const warehousesTable = "cat_warehouses"

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct {
	*BaseCatalogRepo[*warehouse.Warehouse]
}

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			warehousesTable,
			"warehouse",
			func() *warehouse.Warehouse { return &warehouse.Warehouse{} },
		),
	}
}

var _ warehouse.Repository = (*WarehouseRepo)(nil)
