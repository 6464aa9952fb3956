package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"tillbook/internal/core/appctx"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/ledger"
)

// CompressionAlgo specifies the compression algorithm used for a snapshot.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditEntry is one audited administrative override, carrying a full
// snapshot of the removed record.
type AuditEntry struct {
	ID                 id.ID           `db:"id"`
	EntityType         string          `db:"entity_type"`
	EntityID           id.ID           `db:"entity_id"`
	Reason             string          `db:"reason"`
	UserID             string          `db:"user_id"`
	Snapshot           json.RawMessage `db:"snapshot"`
	SnapshotCompressed []byte          `db:"snapshot_compressed"`
	CompressionAlgo    CompressionAlgo `db:"compression_algo"`
	CreatedAt          time.Time       `db:"created_at"`
}

// AuditService records deletion audit entries. Large snapshots are stored
// zstd-compressed.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// Compile-time checks.
var (
	_ ledger.AuditSink   = (*AuditService)(nil)
	_ ledger.AuditReader = (*AuditService)(nil)
)

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 4 * 1024,
	}, nil
}

// RecordDeletion implements ledger.AuditSink. Must run inside the same
// transaction as the delete so the trail never diverges from the ledger.
func (s *AuditService) RecordDeletion(ctx context.Context, deleted *ledger.Transaction, reason string) error {
	snapshot, err := json.Marshal(deleted)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	entry := AuditEntry{
		ID:         id.New(),
		EntityType: "transaction",
		EntityID:   deleted.ID,
		Reason:     reason,
		UserID:     appctx.GetUserID(ctx),
		Snapshot:   snapshot,
		CreatedAt:  time.Now().UTC(),
	}

	entry.CompressionAlgo = CompressionNone
	if len(entry.Snapshot) > s.compressThreshold {
		entry.SnapshotCompressed = s.encoder.EncodeAll(entry.Snapshot, nil)
		entry.Snapshot = nil
		entry.CompressionAlgo = CompressionZstd
	}

	querier := s.txManager.GetQuerier(ctx)
	_, err = querier.Exec(ctx, `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, reason, user_id,
			snapshot, snapshot_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		entry.ID, entry.EntityType, entry.EntityID, entry.Reason, entry.UserID,
		entry.Snapshot, entry.SnapshotCompressed, entry.CompressionAlgo,
		entry.CreatedAt,
	)
	return err
}

// GetEntityHistory retrieves audit entries for an entity, decompressing
// snapshots as needed.
func (s *AuditService) GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditEntry, error) {
	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id, entity_type, entity_id, reason, user_id,
		       snapshot, snapshot_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Reason, &e.UserID,
			&e.Snapshot, &e.SnapshotCompressed, &e.CompressionAlgo,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		if e.CompressionAlgo == CompressionZstd && len(e.SnapshotCompressed) > 0 {
			decompressed, err := s.decoder.DecodeAll(e.SnapshotCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress snapshot: %w", err)
			}
			e.Snapshot = decompressed
			e.SnapshotCompressed = nil
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// GetDeletionHistory implements ledger.AuditReader.
func (s *AuditService) GetDeletionHistory(ctx context.Context, txID id.ID, limit int) ([]ledger.DeletionEntry, error) {
	entries, err := s.GetEntityHistory(ctx, "transaction", txID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]ledger.DeletionEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ledger.DeletionEntry{
			Reason:    e.Reason,
			DeletedBy: e.UserID,
			DeletedAt: e.CreatedAt,
			Snapshot:  e.Snapshot,
		})
	}
	return out, nil
}
