package dto

import (
	"stockledger/internal/core/types"
	"stockledger/internal/domain/reorder"
)

// ReorderPolicyRequest creates or updates a policy.
type ReorderPolicyRequest struct {
	ProductID    string          `json:"productId" binding:"required"`
	WarehouseID  string          `json:"warehouseId" binding:"required"`
	MinQty       types.Quantity  `json:"minQty"`
	MaxQty       *types.Quantity `json:"maxQty,omitempty"`
	ReorderPoint *types.Quantity `json:"reorderPoint,omitempty"`
	SupplierID   *string         `json:"supplierId,omitempty"`
	LeadTimeDays *int            `json:"leadTimeDays,omitempty"`
	IsActive     *bool           `json:"isActive,omitempty"`
}

// ToInput converts the request into the service input.
func (r ReorderPolicyRequest) ToInput() (reorder.PolicyInput, error) {
	productID, err := ParseID("productId", r.ProductID)
	if err != nil {
		return reorder.PolicyInput{}, err
	}
	warehouseID, err := ParseID("warehouseId", r.WarehouseID)
	if err != nil {
		return reorder.PolicyInput{}, err
	}
	supplierID, err := ParseOptionalID("supplierId", r.SupplierID)
	if err != nil {
		return reorder.PolicyInput{}, err
	}

	return reorder.PolicyInput{
		ProductID:    productID,
		WarehouseID:  warehouseID,
		MinQty:       r.MinQty,
		MaxQty:       r.MaxQty,
		ReorderPoint: r.ReorderPoint,
		SupplierID:   supplierID,
		LeadTimeDays: r.LeadTimeDays,
		IsActive:     r.IsActive,
	}, nil
}
