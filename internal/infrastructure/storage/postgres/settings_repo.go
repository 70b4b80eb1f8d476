package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/settings"
)

// Compile-time check.
var _ settings.Repository = (*SettingsRepo)(nil)

var settingsColumns = []string{
	"id", "tenant_id", "negative_stock_policy", "reservation_policy",
	"default_warehouse_id", "version", "created_at", "updated_at",
}

// SettingsRepo is the PostgreSQL settings store. The aggregate spans the
// settings row and its per-document-type sequence rows.
type SettingsRepo struct {
	txManager *TxManager
}

// NewSettingsRepo creates the settings repository.
func NewSettingsRepo(txManager *TxManager) *SettingsRepo {
	return &SettingsRepo{txManager: txManager}
}

func (r *SettingsRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetByTenant loads the settings aggregate with its sequences.
func (r *SettingsRepo) GetByTenant(ctx context.Context, tenantID string) (*settings.Settings, error) {
	q := r.builder().
		Select(settingsColumns...).
		From("sys_settings").
		Where(squirrel.Eq{"tenant_id": tenantID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)

	var s settings.Settings
	if err := pgxscan.Get(ctx, querier, &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("settings", tenantID)
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}

	seqSQL, seqArgs, err := r.builder().
		Select("document_type", "prefix", "next_number", "pad_width").
		From("sys_settings_sequences").
		Where(squirrel.Eq{"settings_id": s.ID}).
		OrderBy("document_type").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &s.Sequences, seqSQL, seqArgs...); err != nil {
		return nil, fmt.Errorf("get sequences: %w", err)
	}

	return &s, nil
}

// Create inserts a lazily created aggregate with all its sequences.
func (r *SettingsRepo) Create(ctx context.Context, s *settings.Settings) error {
	querier := r.txManager.GetQuerier(ctx)

	sql, args, err := r.builder().
		Insert("sys_settings").
		Columns(settingsColumns...).
		Values(
			s.ID, s.TenantID, s.NegativeStockPolicy, s.ReservationPolicy,
			s.DefaultWarehouseID, s.Version, s.CreatedAt, s.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert settings: %w", err)
	}

	return r.saveSequences(ctx, s)
}

// Update saves policy fields and counters with optimistic locking.
func (r *SettingsRepo) Update(ctx context.Context, s *settings.Settings) error {
	q := r.builder().
		Update("sys_settings").
		Set("negative_stock_policy", s.NegativeStockPolicy).
		Set("reservation_policy", s.ReservationPolicy).
		Set("default_warehouse_id", s.DefaultWarehouseID).
		Set("updated_at", s.UpdatedAt).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": s.ID, "version": s.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("settings", s.ID)
	}
	s.Version++

	return r.saveSequences(ctx, s)
}

// saveSequences upserts every counter. next_number only ever grows, so a
// racing transaction cannot roll a counter back.
func (r *SettingsRepo) saveSequences(ctx context.Context, s *settings.Settings) error {
	querier := r.txManager.GetQuerier(ctx)
	for _, seq := range s.Sequences {
		_, err := querier.Exec(ctx, `
			INSERT INTO sys_settings_sequences (settings_id, document_type, prefix, next_number, pad_width)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (settings_id, document_type) DO UPDATE SET
				prefix = EXCLUDED.prefix,
				next_number = GREATEST(sys_settings_sequences.next_number, EXCLUDED.next_number),
				pad_width = EXCLUDED.pad_width
		`, s.ID, seq.DocumentType, seq.Prefix, seq.NextNumber, seq.PadWidth)
		if err != nil {
			return fmt.Errorf("upsert sequence %s: %w", seq.DocumentType, err)
		}
	}
	return nil
}
