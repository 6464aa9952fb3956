package partner

import (
	"tillbook/internal/core/tx"
	"tillbook/internal/domain"
)

// Service provides business logic for the Partner catalog.
type Service struct {
	*domain.CatalogService[*Partner]
	repo Repository
}

// NewService creates a new Partner service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService[*Partner](repo, txManager, "partner"),
		repo:           repo,
	}
}
