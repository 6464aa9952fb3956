package domain

import (
	"context"

	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
)

// CatalogFilter contains common filtering options for catalog lists.
type CatalogFilter struct {
	// Search matches code or name, case-insensitive substring
	Search string

	// IncludeDeleted includes soft-deleted records
	IncludeDeleted bool

	// OrderBy specifies sorting (e.g. "name", "-code")
	OrderBy string

	Limit  int
	Offset int
}

// DefaultCatalogFilter returns sensible defaults.
func DefaultCatalogFilter() CatalogFilter {
	return CatalogFilter{
		Limit:   50,
		OrderBy: "name",
	}
}

// CatalogRepository defines CRUD operations for catalog entities.
type CatalogRepository[T entity.Validatable] interface {
	// Create inserts a new entity
	Create(ctx context.Context, entity T) error

	// GetByID retrieves entity by ID
	GetByID(ctx context.Context, id id.ID) (T, error)

	// GetByCode retrieves entity by code (unique)
	GetByCode(ctx context.Context, code string) (T, error)

	// Update modifies an existing entity (with optimistic locking)
	Update(ctx context.Context, entity T) error

	// Delete performs a soft delete (sets deletion_mark=true)
	Delete(ctx context.Context, id id.ID) error

	// List retrieves entities with filtering and pagination
	List(ctx context.Context, filter CatalogFilter) (ListResult[T], error)

	// Exists checks if an entity with the given ID exists
	Exists(ctx context.Context, id id.ID) (bool, error)

	// ExistsByCode checks if an entity with the given code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
