// Package employee provides the Employee catalog.
// Employees open shifts and author ledger transactions. A short numeric
// PIN authenticates them at the till; only its bcrypt hash is stored.
package employee

import (
	"context"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/entity"
)

var pinRE = regexp.MustCompile(`^\d{4,8}$`)

// Role defines the employee's permission level.
type Role string

const (
	RoleCashier Role = "cashier"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Employee represents a till operator.
type Employee struct {
	entity.Catalog

	// Role defines the permission level
	Role Role `db:"role" json:"role"`

	// PINHash is the bcrypt hash of the till PIN, never the PIN itself
	PINHash string `db:"pin_hash" json:"-"`

	// IsActive gates shift opening
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewEmployee creates a new active Employee.
func NewEmployee(code, name string, role Role) *Employee {
	return &Employee{
		Catalog:  entity.NewCatalog(code, name),
		Role:     role,
		IsActive: true,
	}
}

// Validate implements entity.Validatable.
func (e *Employee) Validate(ctx context.Context) error {
	if err := e.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch e.Role {
	case RoleCashier, RoleManager, RoleAdmin:
	default:
		return apperror.NewValidation("invalid employee role").
			WithDetail("field", "role").
			WithDetail("value", string(e.Role))
	}

	return nil
}

// SetPIN hashes and stores a new till PIN. The PIN must be 4 to 8 digits.
func (e *Employee) SetPIN(pin string) error {
	if !pinRE.MatchString(pin) {
		return apperror.NewValidation("PIN must be 4 to 8 digits").
			WithDetail("field", "pin")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternal(err)
	}
	e.PINHash = string(hash)
	return nil
}

// CheckPIN verifies a PIN against the stored hash.
func (e *Employee) CheckPIN(pin string) bool {
	if e.PINHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(e.PINHash), []byte(pin)) == nil
}
