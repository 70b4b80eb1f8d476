// Package location provides the stock Location catalog.
// A location is one addressable place inside a warehouse; the move ledger and
// reservations are kept per location.
package location

import (
	"context"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// LocationType defines well-known roles inside a warehouse.
type LocationType string

const (
	TypeReceiving LocationType = "RECEIVING"
	TypeInternal  LocationType = "INTERNAL"
	TypeShipping  LocationType = "SHIPPING"
)

// Location represents one stock-keeping place.
type Location struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"tenantId"`

	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	Code string       `db:"code" json:"code"`
	Name string       `db:"name" json:"name"`
	Type LocationType `db:"location_type" json:"locationType"`

	IsActive bool `db:"is_active" json:"isActive"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewLocation creates an active location.
func NewLocation(locationID id.ID, tenantID string, warehouseID id.ID, code, name string, lType LocationType, now time.Time) *Location {
	return &Location{
		ID:          locationID,
		TenantID:    tenantID,
		WarehouseID: warehouseID,
		Code:        code,
		Name:        name,
		Type:        lType,
		IsActive:    true,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks catalog invariants.
func (l *Location) Validate(ctx context.Context) error {
	if id.IsNil(l.WarehouseID) {
		return apperror.NewValidation("warehouse is required").WithDetail("field", "warehouseId")
	}
	if l.Code == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	switch l.Type {
	case TypeReceiving, TypeInternal, TypeShipping:
	default:
		return apperror.NewValidation("invalid location type").
			WithDetail("field", "locationType").
			WithDetail("value", string(l.Type))
	}
	return nil
}

// Repository defines the location store port.
type Repository interface {
	Create(ctx context.Context, l *Location) error
	GetByID(ctx context.Context, tenantID string, locationID id.ID) (*Location, error)
	ListByWarehouse(ctx context.Context, tenantID string, warehouseID id.ID) ([]*Location, error)

	// FindByWarehouseAndType returns the first active location of the given
	// type inside a warehouse (used for default location resolution).
	FindByWarehouseAndType(ctx context.Context, tenantID string, warehouseID id.ID, lType LocationType) (*Location, error)

	List(ctx context.Context, tenantID string, limit, offset int) ([]*Location, error)
}
