// Package cache provides a byte-oriented report cache. Derived data (shift
// summaries, aging reports) is pure function of ledger state, so cached
// copies only need invalidation on writes, never reconciliation.
package cache

import (
	"context"
	"time"
)

// ReportCache stores serialized derived reports.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Noop satisfies ReportCache without storing anything.
type Noop struct{}

func (Noop) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}

func (Noop) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}

func (Noop) Del(_ context.Context, _ string) error {
	return nil
}
