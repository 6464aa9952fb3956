package handlers

import (
	"tillbook/internal/domain/catalogs/employee"
	"tillbook/internal/infrastructure/http/v1/dto"
)

// EmployeeHTTPHandler is a type alias keeping signatures readable.
type EmployeeHTTPHandler = CatalogHandler[
	*employee.Employee,
	dto.CreateEmployeeRequest,
	dto.UpdateEmployeeRequest,
]

// NewEmployeeHandler wires the generic catalog handler for employees.
// PIN hashes never leave the entity's JSON representation.
func NewEmployeeHandler(base *BaseHandler, service *employee.Service) *EmployeeHTTPHandler {
	config := CatalogHandlerConfig[
		*employee.Employee,
		dto.CreateEmployeeRequest,
		dto.UpdateEmployeeRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "employee",

		MapCreateDTO: func(req dto.CreateEmployeeRequest) (*employee.Employee, error) {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateEmployeeRequest, existing *employee.Employee) (*employee.Employee, error) {
			if err := req.ApplyTo(existing); err != nil {
				return nil, err
			}
			return existing, nil
		},

		MapToDTO: func(e *employee.Employee) any {
			return e
		},
	}

	return NewCatalogHandler(base, config)
}
