package dto

import (
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/domain/aging"
)

// AgingQuery holds parameters for the receivables aging report.
type AgingQuery struct {
	// AsOf defaults to today.
	AsOf *time.Time `form:"asOf" time_format:"2006-01-02"`

	// Boundaries override the default 30/60/90 day buckets.
	Boundaries []int `form:"boundaries"`

	IncludeZeroBalance bool `form:"includeZeroBalance"`

	// Filter is a CEL expression over customer code and name,
	// e.g. code.startsWith("VIP") || name.contains("Ltd").
	Filter string `form:"filter"`
}

// ToOptions converts query parameters to service options.
func (q AgingQuery) ToOptions() aging.Options {
	return aging.Options{
		Boundaries:         q.Boundaries,
		IncludeZeroBalance: q.IncludeZeroBalance,
		CustomerFilter:     q.Filter,
	}
}

// AsOfOrNow returns the reference date, defaulting to the current time.
func (q AgingQuery) AsOfOrNow() time.Time {
	if q.AsOf != nil {
		return *q.AsOf
	}
	return time.Now().UTC()
}

// --- Invoices ---

// CreateInvoiceRequest registers a receivable.
type CreateInvoiceRequest struct {
	Number     string     `json:"number" binding:"required"`
	CustomerID string     `json:"customerId" binding:"required"`
	IssueDate  time.Time  `json:"issueDate" binding:"required"`
	DueDate    *time.Time `json:"dueDate"`
	Total      string     `json:"total" binding:"required"`
}

// Validate checks date ordering beyond what binding covers.
func (r CreateInvoiceRequest) Validate() error {
	if r.DueDate != nil && r.DueDate.Before(r.IssueDate) {
		return apperror.NewValidation("due date must not precede issue date").
			WithDetail("field", "dueDate")
	}
	return nil
}

// InvoiceListQuery holds invoice list filter query parameters.
type InvoiceListQuery struct {
	CustomerID      *string    `form:"customerId"`
	Status          string     `form:"status"`
	OutstandingOnly bool       `form:"outstandingOnly"`
	DueBefore       *time.Time `form:"dueBefore" time_format:"2006-01-02"`
	Limit           int        `form:"limit"`
	Offset          int        `form:"offset"`
}
