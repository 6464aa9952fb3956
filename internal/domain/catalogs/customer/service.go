package customer

import (
	"tillbook/internal/core/tx"
	"tillbook/internal/domain"
)

// Service provides business logic for the Customer catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Customer]
	repo Repository
}

// NewService creates a new Customer service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService[*Customer](repo, txManager, "customer"),
		repo:           repo,
	}
}
