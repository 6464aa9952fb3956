package handlers

import (
	"tillbook/internal/domain/catalogs/partner"
	"tillbook/internal/infrastructure/http/v1/dto"
)

// PartnerHTTPHandler is a type alias keeping signatures readable.
type PartnerHTTPHandler = CatalogHandler[
	*partner.Partner,
	dto.CreatePartnerRequest,
	dto.UpdatePartnerRequest,
]

// NewPartnerHandler wires the generic catalog handler for partners.
func NewPartnerHandler(base *BaseHandler, service *partner.Service) *PartnerHTTPHandler {
	config := CatalogHandlerConfig[
		*partner.Partner,
		dto.CreatePartnerRequest,
		dto.UpdatePartnerRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "partner",

		MapCreateDTO: func(req dto.CreatePartnerRequest) (*partner.Partner, error) {
			return req.ToEntity(), nil
		},

		MapUpdateDTO: func(req dto.UpdatePartnerRequest, existing *partner.Partner) (*partner.Partner, error) {
			req.ApplyTo(existing)
			return existing, nil
		},

		MapToDTO: func(e *partner.Partner) any {
			return e
		},
	}

	return NewCatalogHandler(base, config)
}
