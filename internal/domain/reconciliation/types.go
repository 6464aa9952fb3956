// Package reconciliation computes expected vs. actual cash for closed shifts.
package reconciliation

import (
	"time"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/ledger"
)

// MethodTotal holds the signed totals for one payment method within a shift.
// Only completed transactions contribute.
type MethodTotal struct {
	Method   ledger.Method `json:"method"`
	Receipts types.Money   `json:"receipts"`
	Payments types.Money   `json:"payments"`
	Net      types.Money   `json:"net"`
	Count    int           `json:"count"`
}

// ShiftSummary is the reconciliation result for one closed shift.
// It is derived, never persisted as a primary entity: re-running against
// unchanged ledger state yields an identical summary.
type ShiftSummary struct {
	ShiftID id.ID `json:"shiftId"`

	OpeningCash types.Money `json:"openingCash"`

	// ExpectedCash = openingCash + sum of signed completed cash amounts.
	ExpectedCash types.Money `json:"expectedCash"`

	// ActualCash is the counted drawer amount recorded at close.
	ActualCash types.Money `json:"actualCash"`

	// Discrepancy = actualCash - expectedCash.
	Discrepancy types.Money `json:"discrepancy"`

	ByMethod []MethodTotal `json:"byMethod"`

	// Counts: completed transactions drive totals; canceled and failed are
	// excluded from sums but reported for audit.
	CompletedCount int `json:"completedCount"`
	CanceledCount  int `json:"canceledCount"`
	FailedCount    int `json:"failedCount"`
	PendingCount   int `json:"pendingCount"`
	TotalCount     int `json:"totalCount"`

	GeneratedAt time.Time `json:"generatedAt"`
}
