package location

import (
	"context"

	"stockledger/internal/core/clock"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/catalogs/warehouse"
)

// Service provides location master data operations.
type Service struct {
	repo       Repository
	warehouses warehouse.Repository
	clock      clock.Clock
	ids        id.Generator
}

// NewService creates the location service.
func NewService(repo Repository, warehouses warehouse.Repository, clk clock.Clock, ids id.Generator) *Service {
	return &Service{repo: repo, warehouses: warehouses, clock: clk, ids: ids}
}

// CreateInput describes a new location.
type CreateInput struct {
	WarehouseID id.ID
	Code        string
	Name        string
	Type        LocationType
}

// Create registers a location inside an existing warehouse.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Location, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.warehouses.GetByID(ctx, tenantID, in.WarehouseID); err != nil {
		return nil, err
	}

	l := NewLocation(s.ids.NewID(), tenantID, in.WarehouseID, in.Code, in.Name, in.Type, s.clock.Now())
	if err := l.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Get returns one location.
func (s *Service) Get(ctx context.Context, locationID id.ID) (*Location, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, tenantID, locationID)
}

// List returns locations with offset pagination.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Location, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, tenantID, limit, offset)
}
