package reorder

import (
	"context"
	"sort"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/clock"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/registers/stock"
)

// Service manages policies and produces replenishment suggestions.
// Suggestion computation is deterministic and side-effect-free.
type Service struct {
	policies Repository
	query    *stock.QueryEngine
	clock    clock.Clock
	ids      id.Generator
}

// NewService creates the reorder service.
func NewService(policies Repository, query *stock.QueryEngine, clk clock.Clock, ids id.Generator) *Service {
	return &Service{
		policies: policies,
		query:    query,
		clock:    clk,
		ids:      ids,
	}
}

// PolicyInput describes a new or updated policy.
type PolicyInput struct {
	ProductID    id.ID
	WarehouseID  id.ID
	MinQty       types.Quantity
	MaxQty       *types.Quantity
	ReorderPoint *types.Quantity
	SupplierID   *id.ID
	LeadTimeDays *int
	IsActive     *bool
}

// CreatePolicy registers a replenishment rule.
func (s *Service) CreatePolicy(ctx context.Context, in PolicyInput) (*Policy, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p := NewPolicy(s.ids.NewID(), tenantID, in.ProductID, in.WarehouseID, in.MinQty, now)
	p.MaxQty = in.MaxQty
	p.ReorderPoint = in.ReorderPoint
	p.SupplierID = in.SupplierID
	p.LeadTimeDays = in.LeadTimeDays
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	if err := p.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.policies.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePolicy replaces the mutable fields of a policy.
func (s *Service) UpdatePolicy(ctx context.Context, policyID id.ID, in PolicyInput) (*Policy, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.policies.GetByID(ctx, tenantID, policyID)
	if err != nil {
		return nil, err
	}

	p.MinQty = in.MinQty
	p.MaxQty = in.MaxQty
	p.ReorderPoint = in.ReorderPoint
	p.SupplierID = in.SupplierID
	p.LeadTimeDays = in.LeadTimeDays
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.UpdatedAt = s.clock.Now()

	if err := p.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.policies.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPolicy returns one policy.
func (s *Service) GetPolicy(ctx context.Context, policyID id.ID) (*Policy, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.policies.GetByID(ctx, tenantID, policyID)
}

// ListPolicies returns policies with offset pagination.
func (s *Service) ListPolicies(ctx context.Context, limit, offset int) ([]*Policy, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.policies.List(ctx, tenantID, limit, offset)
}

// productTotals is availability summed across a warehouse's locations.
type productTotals struct {
	onHand    types.Quantity
	reserved  types.Quantity
	available types.Quantity
}

// Suggestions evaluates every active policy (optionally one warehouse) and
// proposes replenishment for products whose availability is at or below the
// mode's threshold. suggestedQty tops the product back up to the threshold.
func (s *Service) Suggestions(ctx context.Context, warehouseID *id.ID, mode ThresholdMode) ([]Suggestion, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = ModeLowStock
	}
	if !mode.Valid() {
		return nil, apperror.NewValidation("unknown threshold mode").
			WithDetail("threshold_mode", string(mode))
	}

	policies, err := s.policies.ListActive(ctx, tenantID, warehouseID)
	if err != nil {
		return nil, err
	}

	byWarehouse := make(map[id.ID][]*Policy)
	for _, p := range policies {
		byWarehouse[p.WarehouseID] = append(byWarehouse[p.WarehouseID], p)
	}

	suggestions := make([]Suggestion, 0)
	for whID, whPolicies := range byWarehouse {
		wh := whID
		levels, err := s.query.Levels(ctx, stock.Query{WarehouseID: &wh})
		if err != nil {
			return nil, err
		}

		totals := make(map[id.ID]productTotals, len(levels))
		for _, lvl := range levels {
			t := totals[lvl.ProductID]
			t.onHand += lvl.OnHand
			t.reserved += lvl.Reserved
			t.available += lvl.Available
			totals[lvl.ProductID] = t
		}

		for _, p := range whPolicies {
			t := totals[p.ProductID]
			threshold := p.threshold(mode)
			if t.available > threshold {
				continue
			}
			suggested := threshold - t.available
			if suggested < 0 {
				suggested = 0
			}
			suggestions = append(suggestions, Suggestion{
				ProductID:    p.ProductID,
				WarehouseID:  p.WarehouseID,
				OnHand:       t.onHand,
				Reserved:     t.reserved,
				Available:    t.available,
				Threshold:    threshold,
				SuggestedQty: suggested,
				SupplierID:   p.SupplierID,
				LeadTimeDays: p.LeadTimeDays,
			})
		}
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].WarehouseID != suggestions[j].WarehouseID {
			return suggestions[i].WarehouseID.String() < suggestions[j].WarehouseID.String()
		}
		return suggestions[i].ProductID.String() < suggestions[j].ProductID.String()
	})

	return suggestions, nil
}
