package product

import (
	"context"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/clock"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
)

// Service provides product master data operations.
type Service struct {
	repo  Repository
	clock clock.Clock
	ids   id.Generator
}

// NewService creates the product service.
func NewService(repo Repository, clk clock.Clock, ids id.Generator) *Service {
	return &Service{repo: repo, clock: clk, ids: ids}
}

// CreateInput describes a new product.
type CreateInput struct {
	SKU  string
	Name string
	Type ProductType
}

// Create registers a product after checking SKU uniqueness.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	p := NewProduct(s.ids.NewID(), tenantID, in.SKU, in.Name, in.Type, s.clock.Now())
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetBySKU(ctx, tenantID, in.SKU)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewDuplicate("product", "sku", in.SKU)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateInput patches a product. Nil fields keep the current value.
type UpdateInput struct {
	Name     *string
	IsActive *bool
}

// Update patches mutable product fields.
func (s *Service) Update(ctx context.Context, productID id.ID, in UpdateInput) (*Product, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.UpdatedAt = s.clock.Now()

	if err := p.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, tenantID, productID)
}

// List returns products with offset pagination.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Product, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, tenantID, limit, offset)
}
