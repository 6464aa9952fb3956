package dto

import (
	"tillbook/internal/core/apperror"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/catalogs/customer"
	"tillbook/internal/domain/catalogs/employee"
	"tillbook/internal/domain/catalogs/partner"
	"tillbook/internal/domain/catalogs/warehouse"
)

// --- Customer ---

// CreateCustomerRequest for creating customers.
type CreateCustomerRequest struct {
	Code        string  `json:"code" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	CreditLimit *string `json:"creditLimit"`
}

// ToEntity converts the request to a domain entity.
func (r CreateCustomerRequest) ToEntity() (*customer.Customer, error) {
	c := customer.NewCustomer(r.Code, r.Name)
	c.Phone = r.Phone
	c.Email = r.Email

	limit, err := parseOptionalMoney("creditLimit", r.CreditLimit)
	if err != nil {
		return nil, err
	}
	c.CreditLimit = limit
	return c, nil
}

// UpdateCustomerRequest for updating customers.
type UpdateCustomerRequest struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	CreditLimit *string `json:"creditLimit"`
	Version     int     `json:"version" binding:"required,min=1"`
}

// ApplyTo maps set fields onto the existing entity.
func (r UpdateCustomerRequest) ApplyTo(c *customer.Customer) error {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Phone != nil {
		c.Phone = r.Phone
	}
	if r.Email != nil {
		c.Email = r.Email
	}
	if r.CreditLimit != nil {
		limit, err := parseOptionalMoney("creditLimit", r.CreditLimit)
		if err != nil {
			return err
		}
		c.CreditLimit = limit
	}
	c.Version = r.Version
	return nil
}

// --- Partner ---

// CreatePartnerRequest for creating partners.
type CreatePartnerRequest struct {
	Code          string  `json:"code" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Type          string  `json:"type" binding:"required"`
	ContactPerson *string `json:"contactPerson"`
	Phone         *string `json:"phone"`
}

// ToEntity converts the request to a domain entity.
func (r CreatePartnerRequest) ToEntity() *partner.Partner {
	p := partner.NewPartner(r.Code, r.Name, partner.Type(r.Type))
	p.ContactPerson = r.ContactPerson
	p.Phone = r.Phone
	return p
}

// UpdatePartnerRequest for updating partners.
type UpdatePartnerRequest struct {
	Name          *string `json:"name"`
	Type          *string `json:"type"`
	ContactPerson *string `json:"contactPerson"`
	Phone         *string `json:"phone"`
	Version       int     `json:"version" binding:"required,min=1"`
}

// ApplyTo maps set fields onto the existing entity.
func (r UpdatePartnerRequest) ApplyTo(p *partner.Partner) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Type != nil {
		p.Type = partner.Type(*r.Type)
	}
	if r.ContactPerson != nil {
		p.ContactPerson = r.ContactPerson
	}
	if r.Phone != nil {
		p.Phone = r.Phone
	}
	p.Version = r.Version
}

// --- Warehouse ---

// CreateWarehouseRequest for creating warehouses.
type CreateWarehouseRequest struct {
	Code    string  `json:"code" binding:"required"`
	Name    string  `json:"name" binding:"required"`
	Address *string `json:"address"`
}

// ToEntity converts the request to a domain entity.
func (r CreateWarehouseRequest) ToEntity() *warehouse.Warehouse {
	w := warehouse.NewWarehouse(r.Code, r.Name)
	w.Address = r.Address
	return w
}

// UpdateWarehouseRequest for updating warehouses.
type UpdateWarehouseRequest struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"isActive"`
	Version  int     `json:"version" binding:"required,min=1"`
}

// ApplyTo maps set fields onto the existing entity.
func (r UpdateWarehouseRequest) ApplyTo(w *warehouse.Warehouse) {
	if r.Name != nil {
		w.Name = *r.Name
	}
	if r.Address != nil {
		w.Address = r.Address
	}
	if r.IsActive != nil {
		w.IsActive = *r.IsActive
	}
	w.Version = r.Version
}

// --- Employee ---

// CreateEmployeeRequest for creating employees. The PIN is hashed on
// creation and never stored or returned in clear.
type CreateEmployeeRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
	Role string `json:"role" binding:"required"`
	PIN  string `json:"pin" binding:"required"`
}

// ToEntity converts the request to a domain entity.
func (r CreateEmployeeRequest) ToEntity() (*employee.Employee, error) {
	e := employee.NewEmployee(r.Code, r.Name, employee.Role(r.Role))
	if err := e.SetPIN(r.PIN); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateEmployeeRequest for updating employees.
type UpdateEmployeeRequest struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	PIN      *string `json:"pin"`
	IsActive *bool   `json:"isActive"`
	Version  int     `json:"version" binding:"required,min=1"`
}

// ApplyTo maps set fields onto the existing entity.
func (r UpdateEmployeeRequest) ApplyTo(e *employee.Employee) error {
	if r.Name != nil {
		e.Name = *r.Name
	}
	if r.Role != nil {
		e.Role = employee.Role(*r.Role)
	}
	if r.PIN != nil {
		if err := e.SetPIN(*r.PIN); err != nil {
			return err
		}
	}
	if r.IsActive != nil {
		e.IsActive = *r.IsActive
	}
	e.Version = r.Version
	return nil
}

func parseOptionalMoney(field string, s *string) (*types.Money, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	m, err := types.NewMoneyFromString(*s)
	if err != nil {
		return nil, apperror.NewValidation("invalid amount format").
			WithDetail("field", field).
			WithDetail("value", *s)
	}
	return &m, nil
}
