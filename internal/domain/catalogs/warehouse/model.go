// Package warehouse provides the Warehouse catalog.
package warehouse

import (
	"context"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// Warehouse represents a physical site that groups stock locations.
type Warehouse struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"tenantId"`

	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`

	// IsDefault marks the warehouse used to resolve omitted line locations.
	IsDefault bool `db:"is_default" json:"isDefault"`
	IsActive  bool `db:"is_active" json:"isActive"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewWarehouse creates an active warehouse.
func NewWarehouse(warehouseID id.ID, tenantID, code, name string, now time.Time) *Warehouse {
	return &Warehouse{
		ID:        warehouseID,
		TenantID:  tenantID,
		Code:      code,
		Name:      name,
		IsActive:  true,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks catalog invariants.
func (w *Warehouse) Validate(ctx context.Context) error {
	if w.Code == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	if w.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return nil
}

// Repository defines the warehouse store port.
type Repository interface {
	Create(ctx context.Context, w *Warehouse) error
	GetByID(ctx context.Context, tenantID string, warehouseID id.ID) (*Warehouse, error)

	// FindDefault returns the tenant's default warehouse, or a NOT_FOUND
	// error when none is marked.
	FindDefault(ctx context.Context, tenantID string) (*Warehouse, error)

	List(ctx context.Context, tenantID string, limit, offset int) ([]*Warehouse, error)
}
