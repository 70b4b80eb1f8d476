package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/reorder"
)

// Compile-time check.
var _ reorder.Repository = (*ReorderPolicyRepo)(nil)

var reorderPolicyColumns = []string{
	"id", "tenant_id", "product_id", "warehouse_id",
	"min_qty", "max_qty", "reorder_point", "supplier_id", "lead_time_days",
	"is_active", "version", "created_at", "updated_at",
}

// ReorderPolicyRepo is the PostgreSQL policy store.
type ReorderPolicyRepo struct {
	txManager *TxManager
}

// NewReorderPolicyRepo creates the policy repository.
func NewReorderPolicyRepo(txManager *TxManager) *ReorderPolicyRepo {
	return &ReorderPolicyRepo{txManager: txManager}
}

func (r *ReorderPolicyRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a policy.
func (r *ReorderPolicyRepo) Create(ctx context.Context, p *reorder.Policy) error {
	sql, args, err := r.builder().
		Insert("cat_reorder_policies").
		Columns(reorderPolicyColumns...).
		Values(
			p.ID, p.TenantID, p.ProductID, p.WarehouseID,
			p.MinQty, p.MaxQty, p.ReorderPoint, p.SupplierID, p.LeadTimeDays,
			p.IsActive, p.Version, p.CreatedAt, p.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert reorder policy: %w", err)
	}
	return nil
}

// GetByID loads one policy.
func (r *ReorderPolicyRepo) GetByID(ctx context.Context, tenantID string, policyID id.ID) (*reorder.Policy, error) {
	sql, args, err := r.builder().
		Select(reorderPolicyColumns...).
		From("cat_reorder_policies").
		Where(squirrel.Eq{"id": policyID, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var p reorder.Policy
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("reorder policy", policyID)
		}
		return nil, fmt.Errorf("get reorder policy: %w", err)
	}
	return &p, nil
}

// Update saves a policy with optimistic locking.
func (r *ReorderPolicyRepo) Update(ctx context.Context, p *reorder.Policy) error {
	q := r.builder().
		Update("cat_reorder_policies").
		Set("min_qty", p.MinQty).
		Set("max_qty", p.MaxQty).
		Set("reorder_point", p.ReorderPoint).
		Set("supplier_id", p.SupplierID).
		Set("lead_time_days", p.LeadTimeDays).
		Set("is_active", p.IsActive).
		Set("updated_at", p.UpdatedAt).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": p.ID, "tenant_id": p.TenantID, "version": p.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update reorder policy: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("reorder policy", p.ID)
	}
	p.Version++
	return nil
}

// ListActive returns active policies, optionally one warehouse's.
func (r *ReorderPolicyRepo) ListActive(ctx context.Context, tenantID string, warehouseID *id.ID) ([]*reorder.Policy, error) {
	q := r.builder().
		Select(reorderPolicyColumns...).
		From("cat_reorder_policies").
		Where(squirrel.Eq{"tenant_id": tenantID, "is_active": true}).
		OrderBy("warehouse_id", "product_id")

	if warehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *warehouseID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	policies := make([]*reorder.Policy, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &policies, sql, args...); err != nil {
		return nil, fmt.Errorf("list active policies: %w", err)
	}
	return policies, nil
}

// List returns policies with offset pagination.
func (r *ReorderPolicyRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*reorder.Policy, error) {
	sql, args, err := r.builder().
		Select(reorderPolicyColumns...).
		From("cat_reorder_policies").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("created_at", "id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	policies := make([]*reorder.Policy, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &policies, sql, args...); err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	return policies, nil
}
