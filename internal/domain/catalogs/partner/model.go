// Package partner provides the Partner catalog.
// Partners are the suppliers, landlords and service providers that
// payments are made to.
package partner

import (
	"context"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/entity"
)

// Type defines what kind of partner this is.
type Type string

const (
	TypeSupplier        Type = "supplier"
	TypeServiceProvider Type = "service_provider"
	TypeOther           Type = "other"
)

// Partner represents a party the business pays money out to.
type Partner struct {
	entity.Catalog

	// Type defines the partner category
	Type Type `db:"type" json:"type"`

	// ContactPerson is the primary contact name
	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`

	// Phone is the primary contact phone
	Phone *string `db:"phone" json:"phone,omitempty"`
}

// NewPartner creates a new Partner with required fields.
func NewPartner(code, name string, pType Type) *Partner {
	return &Partner{
		Catalog: entity.NewCatalog(code, name),
		Type:    pType,
	}
}

// Validate implements entity.Validatable.
func (p *Partner) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch p.Type {
	case TypeSupplier, TypeServiceProvider, TypeOther:
	default:
		return apperror.NewValidation("invalid partner type").
			WithDetail("field", "type").
			WithDetail("value", string(p.Type))
	}

	return nil
}
