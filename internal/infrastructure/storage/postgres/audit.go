package postgres

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"kardex/internal/core/id"
	"kardex/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used for payloads.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// TransitionTrail implements audit.Trail on the sys_transition_log table.
// Order payloads larger than the threshold are stored zstd-compressed;
// small ones stay plain so they remain greppable in the database.
type TransitionTrail struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ audit.Trail = (*TransitionTrail)(nil)

// NewTransitionTrail creates a transition trail backed by postgres.
func NewTransitionTrail(txManager *TxManager) (*TransitionTrail, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &TransitionTrail{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Record writes one transition entry. Runs on the enclosing transaction
// when there is one, so the trail row commits with the transition itself.
func (t *TransitionTrail) Record(ctx context.Context, entry audit.Entry) error {
	payload := entry.Payload
	algo := CompressionNone
	if len(payload) > t.compressThreshold {
		payload = t.encoder.EncodeAll(payload, nil)
		algo = CompressionZstd
	}

	sql := `
		INSERT INTO sys_transition_log (
			entry_id, entity_type, entity_id,
			from_status, to_status, operator,
			payload, compression_algo, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	querier := t.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		entry.EntryID, entry.EntityType, entry.EntityID,
		entry.FromStatus, entry.ToStatus, entry.Operator,
		payload, algo, entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert transition entry: %w", err)
	}

	return nil
}

// ListByEntity returns the transition history of one entity, oldest first.
func (t *TransitionTrail) ListByEntity(ctx context.Context, entityType string, entityID id.ID) ([]audit.Entry, error) {
	sql := `
		SELECT entry_id, entity_type, entity_id,
			   from_status, to_status, operator,
			   payload, compression_algo, occurred_at
		FROM sys_transition_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY occurred_at
	`

	rows, err := t.txManager.GetQuerier(ctx).Query(ctx, sql, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("query transition log: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var algo CompressionAlgo
		err := rows.Scan(
			&e.EntryID, &e.EntityType, &e.EntityID,
			&e.FromStatus, &e.ToStatus, &e.Operator,
			&e.Payload, &algo, &e.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transition entry: %w", err)
		}

		if algo == CompressionZstd && len(e.Payload) > 0 {
			decompressed, err := t.decoder.DecodeAll(e.Payload, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress payload: %w", err)
			}
			e.Payload = decompressed
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
