// Package product provides the Product catalog.
// Master data only: no lifecycle beyond active/inactive.
package product

import (
	"context"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// ProductType defines the kind of item.
type ProductType string

const (
	TypeGoods   ProductType = "GOODS"
	TypeService ProductType = "SERVICE"
)

// Product represents an item that may appear on document lines.
type Product struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"tenantId"`

	SKU  string      `db:"sku" json:"sku"`
	Name string      `db:"name" json:"name"`
	Type ProductType `db:"product_type" json:"productType"`

	IsActive bool `db:"is_active" json:"isActive"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewProduct creates an active product.
func NewProduct(productID id.ID, tenantID, sku, name string, pType ProductType, now time.Time) *Product {
	return &Product{
		ID:        productID,
		TenantID:  tenantID,
		SKU:       sku,
		Name:      name,
		Type:      pType,
		IsActive:  true,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsStockable reports whether the product can appear on inventory documents.
// Services have no physical stock.
func (p *Product) IsStockable() bool {
	return p.Type != TypeService
}

// Validate checks catalog invariants.
func (p *Product) Validate(ctx context.Context) error {
	if p.SKU == "" {
		return apperror.NewValidation("sku is required").WithDetail("field", "sku")
	}
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	switch p.Type {
	case TypeGoods, TypeService:
	default:
		return apperror.NewValidation("invalid product type").
			WithDetail("field", "productType").
			WithDetail("value", string(p.Type))
	}
	return nil
}

// Repository defines the product store port.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, tenantID string, productID id.ID) (*Product, error)
	GetBySKU(ctx context.Context, tenantID, sku string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	List(ctx context.Context, tenantID string, limit, offset int) ([]*Product, error)
}
