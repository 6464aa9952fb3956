package catalog_repo

import (
	"tillbook/internal/domain/catalogs/employee"
	"tillbook/internal/infrastructure/storage/postgres"
)

const employeesTable = "cat_employees"

// EmployeeRepo implements employee.Repository.
type EmployeeRepo struct {
	*BaseCatalogRepo[*employee.Employee]
}

// NewEmployeeRepo creates a new employee repository.
func NewEmployeeRepo(txManager *postgres.TxManager) *EmployeeRepo {
	return &EmployeeRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			employeesTable,
			"employee",
			func() *employee.Employee { return &employee.Employee{} },
		),
	}
}

var _ employee.Repository = (*EmployeeRepo)(nil)
