package dto

// LoginRequest authenticates an employee by code and till PIN.
type LoginRequest struct {
	EmployeeCode string `json:"employeeCode" binding:"required"`
	PIN          string `json:"pin" binding:"required"`
}
