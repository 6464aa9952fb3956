// Package warehouse provides the Warehouse catalog.
// A warehouse is a stock location; every shift and every stock line
// belongs to one.
package warehouse

import (
	"context"

	"tillbook/internal/core/entity"
)

// Warehouse represents a stock location.
type Warehouse struct {
	entity.Catalog

	// Address is the physical location
	Address *string `db:"address" json:"address,omitempty"`

	// IsActive gates new shifts and movements
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewWarehouse creates a new active Warehouse.
func NewWarehouse(code, name string) *Warehouse {
	return &Warehouse{
		Catalog:  entity.NewCatalog(code, name),
		IsActive: true,
	}
}

// Validate implements entity.Validatable.
func (w *Warehouse) Validate(ctx context.Context) error {
	return w.Catalog.Validate(ctx)
}
