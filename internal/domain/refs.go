package domain

import (
	"context"

	"tillbook/internal/core/id"
)

// ReferenceChecker resolves a weak reference: an identifier plus a lookup
// contract, never an ownership edge. Catalog repositories implement it.
type ReferenceChecker interface {
	Exists(ctx context.Context, id id.ID) (bool, error)
}
