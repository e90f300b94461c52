package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "posada/internal/core/context"
	"posada/internal/core/id"
	"posada/internal/domain/audit"
)

const auditTable = "sys_audit"

// CompressionAlgo specifies the compression algorithm used for a payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

var _ audit.Recorder = (*AuditStore)(nil)

// AuditStore persists audit events. Large payloads (a checkout carries
// the whole invoice breakdown) are zstd-compressed.
type AuditStore struct {
	encoder           *zstd.Encoder
	compressThreshold int
}

// NewAuditStore creates a new audit store.
func NewAuditStore() (*AuditStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	return &AuditStore{
		encoder:           encoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Record writes one audit entry.
func (s *AuditStore) Record(ctx context.Context, event audit.Event) error {
	if event.UserID == "" {
		event.UserID = appctx.GetUserID(ctx)
	}
	if id.IsNil(event.ID) {
		event.ID = id.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	changes, err := json.Marshal(event.Changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	var metadata []byte
	if event.Metadata != nil {
		if metadata, err = json.Marshal(event.Metadata); err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	algo := CompressionNone
	var compressed []byte
	if len(changes) > s.compressThreshold {
		compressed = s.encoder.EncodeAll(changes, nil)
		changes = nil
		algo = CompressionZstd
	}

	sql := `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id, user_email,
			changes, changes_compressed, compression_algo, metadata,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	_, err = querier.Exec(ctx, sql,
		event.ID, event.EntityType, event.EntityID, event.Action,
		event.UserID, event.UserEmail,
		changes, compressed, algo, metadata,
		event.CreatedAt,
	)
	return err
}
