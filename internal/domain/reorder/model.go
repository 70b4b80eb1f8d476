// Package reorder provides replenishment policies and the suggestion engine
// that compares current availability against policy thresholds.
package reorder

import (
	"context"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Policy is one replenishment rule for a (product, warehouse) pair.
// Read-only input to the suggestion engine.
type Policy struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"tenantId"`

	ProductID   id.ID `db:"product_id" json:"productId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	MinQty types.Quantity  `db:"min_qty" json:"minQty"`
	MaxQty *types.Quantity `db:"max_qty" json:"maxQty,omitempty"`

	// ReorderPoint overrides MinQty as the threshold in reorder mode.
	ReorderPoint *types.Quantity `db:"reorder_point" json:"reorderPoint,omitempty"`

	SupplierID   *id.ID `db:"supplier_id" json:"supplierId,omitempty"`
	LeadTimeDays *int   `db:"lead_time_days" json:"leadTimeDays,omitempty"`

	IsActive bool `db:"is_active" json:"isActive"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewPolicy creates an active policy.
func NewPolicy(policyID id.ID, tenantID string, productID, warehouseID id.ID, minQty types.Quantity, now time.Time) *Policy {
	return &Policy{
		ID:          policyID,
		TenantID:    tenantID,
		ProductID:   productID,
		WarehouseID: warehouseID,
		MinQty:      minQty,
		IsActive:    true,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks policy invariants.
func (p *Policy) Validate(ctx context.Context) error {
	if id.IsNil(p.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if id.IsNil(p.WarehouseID) {
		return apperror.NewValidation("warehouse is required").WithDetail("field", "warehouseId")
	}
	if p.MinQty.IsNegative() {
		return apperror.NewValidation("minQty cannot be negative").WithDetail("field", "minQty")
	}
	if p.MaxQty != nil && *p.MaxQty < p.MinQty {
		return apperror.NewValidation("maxQty cannot be below minQty").WithDetail("field", "maxQty")
	}
	if p.ReorderPoint != nil && p.ReorderPoint.IsNegative() {
		return apperror.NewValidation("reorderPoint cannot be negative").WithDetail("field", "reorderPoint")
	}
	if p.LeadTimeDays != nil && *p.LeadTimeDays < 0 {
		return apperror.NewValidation("leadTimeDays cannot be negative").WithDetail("field", "leadTimeDays")
	}
	return nil
}

// threshold resolves the policy threshold for the given mode.
func (p *Policy) threshold(mode ThresholdMode) types.Quantity {
	if mode == ModeReorderPoint && p.ReorderPoint != nil {
		return *p.ReorderPoint
	}
	return p.MinQty
}

// ThresholdMode selects which policy field acts as the threshold.
type ThresholdMode string

const (
	// ModeLowStock compares available against minQty.
	ModeLowStock ThresholdMode = "LOW_STOCK"

	// ModeReorderPoint compares available against reorderPoint, falling back
	// to minQty for policies without one.
	ModeReorderPoint ThresholdMode = "REORDER_POINT"
)

// Valid reports whether m is a known mode.
func (m ThresholdMode) Valid() bool {
	return m == ModeLowStock || m == ModeReorderPoint
}

// Suggestion is one proposed replenishment.
type Suggestion struct {
	ProductID   id.ID `json:"productId"`
	WarehouseID id.ID `json:"warehouseId"`

	OnHand    types.Quantity `json:"onHand"`
	Reserved  types.Quantity `json:"reserved"`
	Available types.Quantity `json:"available"`

	Threshold    types.Quantity `json:"threshold"`
	SuggestedQty types.Quantity `json:"suggestedQty"`

	SupplierID   *id.ID `json:"supplierId,omitempty"`
	LeadTimeDays *int   `json:"leadTimeDays,omitempty"`
}

// Repository defines the policy store port.
type Repository interface {
	Create(ctx context.Context, p *Policy) error
	GetByID(ctx context.Context, tenantID string, policyID id.ID) (*Policy, error)
	Update(ctx context.Context, p *Policy) error

	// ListActive returns active policies, optionally filtered by warehouse.
	ListActive(ctx context.Context, tenantID string, warehouseID *id.ID) ([]*Policy, error)

	List(ctx context.Context, tenantID string, limit, offset int) ([]*Policy, error)
}
