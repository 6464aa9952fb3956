package handlers

import (
	"tillbook/internal/domain/catalogs/warehouse"
	"tillbook/internal/infrastructure/http/v1/dto"
)

// WarehouseHTTPHandler is a type alias keeping signatures readable.
type WarehouseHTTPHandler = CatalogHandler[
	*warehouse.Warehouse,
	dto.CreateWarehouseRequest,
	dto.UpdateWarehouseRequest,
]

// NewWarehouseHandler wires the generic catalog handler for warehouses.
func NewWarehouseHandler(base *BaseHandler, service *warehouse.Service) *WarehouseHTTPHandler {
	config := CatalogHandlerConfig[
		*warehouse.Warehouse,
		dto.CreateWarehouseRequest,
		dto.UpdateWarehouseRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "warehouse",

		MapCreateDTO: func(req dto.CreateWarehouseRequest) (*warehouse.Warehouse, error) {
			return req.ToEntity(), nil
		},

		MapUpdateDTO: func(req dto.UpdateWarehouseRequest, existing *warehouse.Warehouse) (*warehouse.Warehouse, error) {
			req.ApplyTo(existing)
			return existing, nil
		},

		MapToDTO: func(e *warehouse.Warehouse) any {
			return e
		},
	}

	return NewCatalogHandler(base, config)
}
