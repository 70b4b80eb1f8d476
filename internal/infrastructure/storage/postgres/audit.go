package postgres

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/documents"
)

// CompressionAlgo specifies the compression algorithm used for a payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditService writes the append-only action log. Large payloads are
// compressed with zstd before storage.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditService creates the audit sink.
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
		compressThreshold: 10 * 1024,
	}, nil
}

// encodePayload splits the stored representation. Exactly one of raw and
// compressed is non-nil: payloads above the threshold move to the compressed
// column and leave the raw column NULL.
func (s *AuditService) encodePayload(payload []byte) (raw, compressed []byte, algo CompressionAlgo) {
	if len(payload) > s.compressThreshold {
		return nil, s.encoder.EncodeAll(payload, nil), CompressionZstd
	}
	return payload, nil, CompressionNone
}

// decodePayload reverses encodePayload.
func (s *AuditService) decodePayload(raw, compressed []byte, algo CompressionAlgo) ([]byte, error) {
	if algo == CompressionZstd && len(compressed) > 0 {
		return s.decoder.DecodeAll(compressed, nil)
	}
	return raw, nil
}

// Append records one audit entry.
func (s *AuditService) Append(ctx context.Context, entry documents.AuditEntry) error {
	payload, compressed, algo := s.encodePayload(entry.Payload)

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, tenant_id, entity_type, entity_id, action,
			payload, payload_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id.New(), entry.TenantID, entry.EntityType, entry.EntityID, entry.Action,
		payload, compressed, algo, entry.At)

	return err
}

// EntityHistory retrieves audit entries for an entity, newest first.
func (s *AuditService) EntityHistory(ctx context.Context, tenantID, entityType string, entityID id.ID, limit int) ([]documents.AuditEntry, error) {
	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT tenant_id, entity_type, entity_id, action,
		       payload, payload_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY created_at DESC
		LIMIT $4
	`, tenantID, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []documents.AuditEntry
	for rows.Next() {
		var e documents.AuditEntry
		var payload, compressed []byte
		var algo CompressionAlgo
		err := rows.Scan(&e.TenantID, &e.EntityType, &e.EntityID, &e.Action,
			&payload, &compressed, &algo, &e.At)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		e.Payload, err = s.decodePayload(payload, compressed, algo)
		if err != nil {
			return nil, fmt.Errorf("decompress payload: %w", err)
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
