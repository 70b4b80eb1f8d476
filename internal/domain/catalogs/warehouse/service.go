package warehouse

import (
	"context"

	"stockledger/internal/core/clock"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
)

// Service provides warehouse master data operations.
type Service struct {
	repo  Repository
	clock clock.Clock
	ids   id.Generator
}

// NewService creates the warehouse service.
func NewService(repo Repository, clk clock.Clock, ids id.Generator) *Service {
	return &Service{repo: repo, clock: clk, ids: ids}
}

// CreateInput describes a new warehouse.
type CreateInput struct {
	Code      string
	Name      string
	IsDefault bool
}

// Create registers a warehouse. Default uniqueness is enforced by the store.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Warehouse, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	w := NewWarehouse(s.ids.NewID(), tenantID, in.Code, in.Name, s.clock.Now())
	w.IsDefault = in.IsDefault

	if err := w.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Get returns one warehouse.
func (s *Service) Get(ctx context.Context, warehouseID id.ID) (*Warehouse, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, tenantID, warehouseID)
}

// List returns warehouses with offset pagination.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Warehouse, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, tenantID, limit, offset)
}
