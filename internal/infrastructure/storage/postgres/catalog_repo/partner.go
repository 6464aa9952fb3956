package catalog_repo

import (
	"tillbook/internal/domain/catalogs/partner"
	"tillbook/internal/infrastructure/storage/postgres"
)

const partnersTable = "cat_partners"

// PartnerRepo implements partner.Repository.
type PartnerRepo struct {
	*BaseCatalogRepo[*partner.Partner]
}

// NewPartnerRepo creates a new partner repository.
func NewPartnerRepo(txManager *postgres.TxManager) *PartnerRepo {
	return &PartnerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			partnersTable,
			"partner",
			func() *partner.Partner { return &partner.Partner{} },
		),
	}
}

var _ partner.Repository = (*PartnerRepo)(nil)
