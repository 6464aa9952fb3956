package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tillbook/internal/core/appctx"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/ledger"
)

// AuditRepo implements ledger.AuditSink on the store, keeping deletion
// records in memory for inspection by tests.
type AuditRepo struct {
	store *Store
}

func NewAuditRepo(store *Store) *AuditRepo {
	return &AuditRepo{store: store}
}

func (r *AuditRepo) RecordDeletion(ctx context.Context, deleted *ledger.Transaction, reason string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletionAudit = append(s.deletionAudit, DeletionRecord{
		Transaction: *deleted,
		Reason:      reason,
		DeletedBy:   appctx.GetUserID(ctx),
		DeletedAt:   time.Now().UTC(),
	})
	return nil
}

// GetDeletionHistory implements ledger.AuditReader.
func (r *AuditRepo) GetDeletionHistory(ctx context.Context, txID id.ID, limit int) ([]ledger.DeletionEntry, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ledger.DeletionEntry
	for i := len(s.deletionAudit) - 1; i >= 0; i-- {
		rec := s.deletionAudit[i]
		if rec.Transaction.ID != txID {
			continue
		}
		snapshot, err := json.Marshal(rec.Transaction)
		if err != nil {
			return nil, fmt.Errorf("marshal snapshot: %w", err)
		}
		out = append(out, ledger.DeletionEntry{
			Reason:    rec.Reason,
			DeletedBy: rec.DeletedBy,
			DeletedAt: rec.DeletedAt,
			Snapshot:  snapshot,
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
