package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// IdempotencyStore caches operation responses keyed by
// (tenant, action, idempotency key) for replay.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
}

// NewIdempotencyStore creates the idempotency store. ttl bounds how long a
// cached response stays replayable.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{txManager: txManager, ttl: ttl}
}

// Get returns the cached response payload for the key, or found=false.
func (s *IdempotencyStore) Get(ctx context.Context, tenantID, action, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT response
		FROM sys_idempotency
		WHERE tenant_id = $1 AND action = $2 AND idempotency_key = $3 AND expires_at > $4
	`, tenantID, action, key, time.Now().UTC()).Scan(&payload)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get idempotency record: %w", err)
	}
	return payload, true, nil
}

// Put stores the response for replay. A concurrent insert of the same key
// keeps the first stored response.
func (s *IdempotencyStore) Put(ctx context.Context, tenantID, action, key string, payload []byte) error {
	now := time.Now().UTC()
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_idempotency (tenant_id, action, idempotency_key, response, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, action, idempotency_key) DO NOTHING
	`, tenantID, action, key, payload, now, now.Add(s.ttl))
	if err != nil {
		return fmt.Errorf("put idempotency record: %w", err)
	}
	return nil
}

// CleanupExpired removes expired idempotency records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_idempotency WHERE expires_at < $1
	`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
