package employee

import (
	"tillbook/internal/core/tx"
	"tillbook/internal/domain"
)

// Service provides business logic for the Employee catalog.
type Service struct {
	*domain.CatalogService[*Employee]
	repo Repository
}

// NewService creates a new Employee service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService[*Employee](repo, txManager, "employee"),
		repo:           repo,
	}
}
