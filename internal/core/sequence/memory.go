package sequence

import (
	"context"
	"sync"
	"time"
)

// MemoryGenerator is an in-process Generator backed by a mutex-guarded map.
// Used by tests and by the in-memory store mode. The same increment-once
// contract holds: concurrent callers for one key never see the same number.
type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryGenerator creates an empty in-memory generator.
func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{
		counters: make(map[string]int64),
	}
}

// Next implements Generator.
func (g *MemoryGenerator) Next(ctx context.Context, cfg Config, day time.Time) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := cfg.Key(day)
	g.counters[key]++
	return g.counters[key], nil
}

// NextCode implements Generator.
func (g *MemoryGenerator) NextCode(ctx context.Context, cfg Config, day time.Time) (string, error) {
	num, err := g.Next(ctx, cfg, day)
	if err != nil {
		return "", err
	}
	return cfg.Format(day, num), nil
}

// Set implements Generator.
func (g *MemoryGenerator) Set(ctx context.Context, cfg Config, day time.Time, value int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counters[cfg.Key(day)] = value
	return nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MemoryGenerator)(nil)
