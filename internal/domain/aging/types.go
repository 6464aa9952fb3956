package aging

import (
	"fmt"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// DefaultBoundaries is used when the caller does not supply bucket
// boundaries: current, 1-30, 31-60, 61-90, 91+.
var DefaultBoundaries = []int{30, 60, 90}

// Buckets describes the day boundaries of an aging report.
// Boundaries [30, 60, 90] produce the buckets
// current | 1-30 | 31-60 | 61-90 | 91+.
type Buckets struct {
	boundaries []int
}

// NewBuckets validates boundaries: positive, strictly increasing.
func NewBuckets(boundaries []int) (Buckets, error) {
	if len(boundaries) == 0 {
		boundaries = DefaultBoundaries
	}
	prev := 0
	for i, b := range boundaries {
		if b <= prev {
			return Buckets{}, apperror.NewInvalidBucketConfiguration(
				fmt.Sprintf("boundary at position %d must be greater than %d, got %d", i, prev, b))
		}
		prev = b
	}
	out := make([]int, len(boundaries))
	copy(out, boundaries)
	return Buckets{boundaries: out}, nil
}

// Count returns the number of buckets, including "current" and the
// open-ended last bucket.
func (b Buckets) Count() int {
	return len(b.boundaries) + 2
}

// Labels returns the human-readable bucket names, in order.
func (b Buckets) Labels() []string {
	labels := make([]string, 0, b.Count())
	labels = append(labels, "current")
	lo := 1
	for _, hi := range b.boundaries {
		labels = append(labels, fmt.Sprintf("%d-%d", lo, hi))
		lo = hi + 1
	}
	labels = append(labels, fmt.Sprintf("%d+", lo))
	return labels
}

// Index returns the bucket for an invoice. An invoice with no due date
// or a due date on or after asOf is current.
func (b Buckets) Index(dueDate *time.Time, asOf time.Time) int {
	if dueDate == nil {
		return 0
	}
	days := daysOverdue(*dueDate, asOf)
	if days <= 0 {
		return 0
	}
	for i, hi := range b.boundaries {
		if days <= hi {
			return i + 1
		}
	}
	return len(b.boundaries) + 1
}

func daysOverdue(due, asOf time.Time) int {
	d := truncateDay(asOf).Sub(truncateDay(due))
	return int(d.Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// OutstandingItem is one unpaid invoice row as read from storage.
type OutstandingItem struct {
	CustomerID   id.ID       `db:"customer_id"`
	CustomerCode string      `db:"customer_code"`
	CustomerName string      `db:"customer_name"`
	InvoiceID    id.ID       `db:"invoice_id"`
	DueDate      *time.Time  `db:"due_date"`
	Outstanding  types.Money `db:"outstanding"`
}

// CustomerAging is one report row: a customer's outstanding balance
// distributed across the buckets.
type CustomerAging struct {
	CustomerID   id.ID         `json:"customer_id"`
	CustomerCode string        `json:"customer_code"`
	CustomerName string        `json:"customer_name"`
	Buckets      []types.Money `json:"buckets"`
	Total        types.Money   `json:"total"`
}

// Report is a receivables aging report as of a reference date.
type Report struct {
	AsOf        time.Time       `json:"as_of"`
	Labels      []string        `json:"labels"`
	Rows        []CustomerAging `json:"rows"`
	Totals      []types.Money   `json:"totals"`
	GrandTotal  types.Money     `json:"grand_total"`
	GeneratedAt time.Time       `json:"generated_at"`
}
