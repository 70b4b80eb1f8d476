package dto

import (
	"stockledger/internal/domain/catalogs/location"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/warehouse"
)

// CreateProductRequest registers a product.
type CreateProductRequest struct {
	SKU  string `json:"sku" binding:"required"`
	Name string `json:"name" binding:"required"`
	Type string `json:"productType" binding:"required"`
}

// ToInput converts the request into the service input.
func (r CreateProductRequest) ToInput() product.CreateInput {
	return product.CreateInput{
		SKU:  r.SKU,
		Name: r.Name,
		Type: product.ProductType(r.Type),
	}
}

// UpdateProductRequest patches a product.
type UpdateProductRequest struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// ToInput converts the request into the service input.
func (r UpdateProductRequest) ToInput() product.UpdateInput {
	return product.UpdateInput{Name: r.Name, IsActive: r.IsActive}
}

// CreateWarehouseRequest registers a warehouse.
type CreateWarehouseRequest struct {
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
	IsDefault bool   `json:"isDefault"`
}

// ToInput converts the request into the service input.
func (r CreateWarehouseRequest) ToInput() warehouse.CreateInput {
	return warehouse.CreateInput{Code: r.Code, Name: r.Name, IsDefault: r.IsDefault}
}

// CreateLocationRequest registers a location.
type CreateLocationRequest struct {
	WarehouseID string `json:"warehouseId" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Type        string `json:"locationType" binding:"required"`
}

// ToInput converts the request into the service input.
func (r CreateLocationRequest) ToInput() (location.CreateInput, error) {
	warehouseID, err := ParseID("warehouseId", r.WarehouseID)
	if err != nil {
		return location.CreateInput{}, err
	}
	return location.CreateInput{
		WarehouseID: warehouseID,
		Code:        r.Code,
		Name:        r.Name,
		Type:        location.LocationType(r.Type),
	}, nil
}
