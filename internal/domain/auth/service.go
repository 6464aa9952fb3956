package auth

import (
	"context"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/domain/catalogs/employee"
	"tillbook/pkg/logger"
)

// TokenResult is a successful login response.
type TokenResult struct {
	AccessToken string             `json:"accessToken"`
	ExpiresAt   time.Time          `json:"expiresAt"`
	Employee    *employee.Employee `json:"employee"`
}

// Service authenticates employees by code and till PIN.
type Service struct {
	employees employee.Repository
	jwt       *JWTService
}

// NewService creates a new auth service.
func NewService(employees employee.Repository, jwt *JWTService) *Service {
	return &Service{
		employees: employees,
		jwt:       jwt,
	}
}

// Login verifies the PIN for an employee code and issues an access token.
// Inactive employees and wrong PINs both return the same unauthorized error
// so the response does not reveal which part failed.
func (s *Service) Login(ctx context.Context, code, pin string) (*TokenResult, error) {
	emp, err := s.employees.GetByCode(ctx, code)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}

	if !emp.IsActive || !emp.CheckPIN(pin) {
		logger.Warn(ctx, "failed login attempt", "employee_code", code)
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(
		emp.ID.String(),
		emp.Name,
		[]string{string(emp.Role)},
		emp.Role == employee.RoleAdmin,
	)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "employee logged in",
		"employee_id", emp.ID,
		"role", emp.Role,
	)

	return &TokenResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Employee:    emp,
	}, nil
}
