// Package sequence provides domain contracts for transaction code numbering.
// Implementations live in the infrastructure layer.
package sequence

import (
	"context"
	"fmt"
	"time"
)

// Generator issues per-(prefix, calendar-day) sequence numbers.
//
// Two simultaneous calls for the same key must never return the same number:
// implementations back Next by a single durable atomic increment
// (INSERT ... ON CONFLICT DO UPDATE ... RETURNING), never by counting
// existing rows — a point-in-time count races under concurrency.
type Generator interface {
	// Next returns the next sequence number for cfg.Prefix on the given day,
	// starting at 1. Numbers are issued in a total order consistent with
	// commit order; under retries they may be issued out of wall-clock order.
	Next(ctx context.Context, cfg Config, day time.Time) (int64, error)

	// NextCode returns the next fully formatted code for cfg on the given day.
	NextCode(ctx context.Context, cfg Config, day time.Time) (string, error)

	// Set forces the current value for a key (migration support).
	Set(ctx context.Context, cfg Config, day time.Time, value int64) error
}

// Config holds numbering configuration for one code series.
type Config struct {
	// Prefix of the series, e.g. "REC" for receipts, "PAY" for payments.
	Prefix string

	// PadWidth is the minimum number width (default 4).
	// Counts past the padded range widen the field, they never overflow.
	PadWidth int
}

// DefaultConfig returns the standard per-day series configuration.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		PadWidth: 4,
	}
}

// Key builds the durable counter key: one counter per prefix per calendar day.
func (c Config) Key(day time.Time) string {
	return fmt.Sprintf("%s_%s", c.Prefix, day.Format("20060102"))
}

// Format renders a sequence number as a transaction code,
// e.g. REC-20250521-0001. Numbers beyond the pad width keep all digits.
func (c Config) Format(day time.Time, num int64) string {
	padWidth := c.PadWidth
	if padWidth == 0 {
		padWidth = 4
	}
	return fmt.Sprintf("%s-%s-%0*d", c.Prefix, day.Format("20060102"), padWidth, num)
}
