package reorder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/clock"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalogs/location"
	"stockledger/internal/domain/registers/reservation"
	"stockledger/internal/domain/registers/stock"
)

const testTenant = "tenant-1"

type policyRepoStub struct {
	policies map[id.ID]*Policy
}

func newPolicyRepoStub() *policyRepoStub {
	return &policyRepoStub{policies: make(map[id.ID]*Policy)}
}

func (r *policyRepoStub) Create(ctx context.Context, p *Policy) error {
	r.policies[p.ID] = p
	return nil
}

func (r *policyRepoStub) GetByID(ctx context.Context, tenantID string, policyID id.ID) (*Policy, error) {
	p, ok := r.policies[policyID]
	if !ok || p.TenantID != tenantID {
		return nil, apperror.NewNotFound("reorder policy", policyID)
	}
	return p, nil
}

func (r *policyRepoStub) Update(ctx context.Context, p *Policy) error {
	r.policies[p.ID] = p
	return nil
}

func (r *policyRepoStub) ListActive(ctx context.Context, tenantID string, warehouseID *id.ID) ([]*Policy, error) {
	out := make([]*Policy, 0)
	for _, p := range r.policies {
		if p.TenantID != tenantID || !p.IsActive {
			continue
		}
		if warehouseID != nil && p.WarehouseID != *warehouseID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *policyRepoStub) List(ctx context.Context, tenantID string, limit, offset int) ([]*Policy, error) {
	out := make([]*Policy, 0)
	for _, p := range r.policies {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

type ledgerStub struct {
	moves []stock.Move
}

func (r *ledgerStub) CreateMoves(ctx context.Context, moves []stock.Move) error {
	r.moves = append(r.moves, moves...)
	return nil
}

func (r *ledgerStub) SumDeltas(ctx context.Context, tenantID string, filter stock.LevelFilter) ([]stock.BalanceRow, error) {
	type key struct{ p, l id.ID }
	sums := make(map[key]*stock.BalanceRow)
	for _, m := range r.moves {
		if m.TenantID != tenantID {
			continue
		}
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		if filter.LocationIDs != nil {
			found := false
			for _, locID := range filter.LocationIDs {
				if m.LocationID == locID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		k := key{m.ProductID, m.LocationID}
		row, ok := sums[k]
		if !ok {
			row = &stock.BalanceRow{ProductID: m.ProductID, LocationID: m.LocationID}
			sums[k] = row
		}
		row.Quantity += m.QuantityDelta
	}
	out := make([]stock.BalanceRow, 0, len(sums))
	for _, row := range sums {
		out = append(out, *row)
	}
	return out, nil
}

func (r *ledgerStub) SumDeltasForUpdate(ctx context.Context, tenantID string, filter stock.LevelFilter) ([]stock.BalanceRow, error) {
	return r.SumDeltas(ctx, tenantID, filter)
}

func (r *ledgerStub) List(ctx context.Context, tenantID string, filter stock.MoveFilter) ([]stock.Move, error) {
	return nil, nil
}

type holdsStub struct {
	reservations []reservation.Reservation
}

func (r *holdsStub) CreateBatch(ctx context.Context, batch []reservation.Reservation) error {
	r.reservations = append(r.reservations, batch...)
	return nil
}

func (r *holdsStub) SumActive(ctx context.Context, tenantID string, productID *id.ID, locationIDs []id.ID) ([]reservation.ReservedRow, error) {
	type key struct{ p, l id.ID }
	sums := make(map[key]*reservation.ReservedRow)
	for _, hold := range r.reservations {
		if hold.TenantID != tenantID || hold.Status != reservation.StatusActive {
			continue
		}
		if productID != nil && hold.ProductID != *productID {
			continue
		}
		if locationIDs != nil {
			found := false
			for _, locID := range locationIDs {
				if hold.LocationID == locID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		k := key{hold.ProductID, hold.LocationID}
		row, ok := sums[k]
		if !ok {
			row = &reservation.ReservedRow{ProductID: hold.ProductID, LocationID: hold.LocationID}
			sums[k] = row
		}
		row.Quantity += hold.ReservedQty
	}
	out := make([]reservation.ReservedRow, 0, len(sums))
	for _, row := range sums {
		out = append(out, *row)
	}
	return out, nil
}

func (r *holdsStub) ReleaseByDocument(ctx context.Context, tenantID string, documentID id.ID, at time.Time) (int64, error) {
	return 0, nil
}

func (r *holdsStub) FulfillByDocument(ctx context.Context, tenantID string, documentID id.ID, at time.Time) (int64, error) {
	return 0, nil
}

func (r *holdsStub) List(ctx context.Context, tenantID string, filter reservation.Filter) ([]reservation.Reservation, error) {
	return nil, nil
}

type siteStub struct {
	locations []*location.Location
}

func (r *siteStub) Create(ctx context.Context, l *location.Location) error {
	r.locations = append(r.locations, l)
	return nil
}

func (r *siteStub) GetByID(ctx context.Context, tenantID string, locationID id.ID) (*location.Location, error) {
	for _, l := range r.locations {
		if l.TenantID == tenantID && l.ID == locationID {
			return l, nil
		}
	}
	return nil, apperror.NewNotFound("location", locationID)
}

func (r *siteStub) ListByWarehouse(ctx context.Context, tenantID string, warehouseID id.ID) ([]*location.Location, error) {
	out := make([]*location.Location, 0)
	for _, l := range r.locations {
		if l.TenantID == tenantID && l.WarehouseID == warehouseID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *siteStub) FindByWarehouseAndType(ctx context.Context, tenantID string, warehouseID id.ID, lType location.LocationType) (*location.Location, error) {
	return nil, apperror.NewNotFound("location", string(lType))
}

func (r *siteStub) List(ctx context.Context, tenantID string, limit, offset int) ([]*location.Location, error) {
	return r.locations, nil
}

type suggestionFixture struct {
	ctx context.Context
	svc *Service

	policies *policyRepoStub
	ledger   *ledgerStub
	holds    *holdsStub
	sites    *siteStub

	warehouseID id.ID
	locA        id.ID
	locB        id.ID
	productX    id.ID
}

func newSuggestionFixture(t *testing.T) *suggestionFixture {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	f := &suggestionFixture{
		ctx:         tenant.WithTenantID(context.Background(), testTenant),
		policies:    newPolicyRepoStub(),
		ledger:      &ledgerStub{},
		holds:       &holdsStub{},
		sites:       &siteStub{},
		warehouseID: id.New(),
		productX:    id.New(),
	}

	a := location.NewLocation(id.New(), testTenant, f.warehouseID, "A", "A", location.TypeInternal, now)
	b := location.NewLocation(id.New(), testTenant, f.warehouseID, "B", "B", location.TypeInternal, now)
	f.sites.locations = append(f.sites.locations, a, b)
	f.locA = a.ID
	f.locB = b.ID

	engine := stock.NewQueryEngine(f.ledger, f.holds, f.sites)
	f.svc = NewService(f.policies, engine, clock.Fixed{T: now}, id.UUIDGenerator{})
	return f
}

func (f *suggestionFixture) addMove(productID, locationID id.ID, delta types.Quantity) {
	f.ledger.moves = append(f.ledger.moves, stock.Move{
		ID:            id.New(),
		TenantID:      testTenant,
		PostingDate:   time.Now(),
		ProductID:     productID,
		LocationID:    locationID,
		QuantityDelta: delta,
		DocumentType:  "RECEIPT",
		DocumentID:    id.New(),
		LineID:        id.New(),
		Reason:        stock.ReasonReceipt,
		CreatedAt:     time.Now(),
	})
}

func (f *suggestionFixture) addPolicy(t *testing.T, in PolicyInput) *Policy {
	t.Helper()
	p, err := f.svc.CreatePolicy(f.ctx, in)
	require.NoError(t, err)
	return p
}

func qty(v float64) types.Quantity { return types.NewQuantityFromFloat64(v) }

func qtyPtr(v float64) *types.Quantity {
	q := types.NewQuantityFromFloat64(v)
	return &q
}

func TestCreatePolicyValidation(t *testing.T) {
	f := newSuggestionFixture(t)

	tests := []struct {
		name string
		in   PolicyInput
	}{
		{"missing product", PolicyInput{WarehouseID: f.warehouseID, MinQty: qty(1)}},
		{"missing warehouse", PolicyInput{ProductID: f.productX, MinQty: qty(1)}},
		{"negative min", PolicyInput{ProductID: f.productX, WarehouseID: f.warehouseID, MinQty: qty(-1)}},
		{"max below min", PolicyInput{ProductID: f.productX, WarehouseID: f.warehouseID, MinQty: qty(10), MaxQty: qtyPtr(5)}},
		{"negative reorder point", PolicyInput{ProductID: f.productX, WarehouseID: f.warehouseID, MinQty: qty(1), ReorderPoint: qtyPtr(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreatePolicy(f.ctx, tt.in)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
		})
	}
}

func TestSuggestionsLowStock(t *testing.T) {
	f := newSuggestionFixture(t)
	f.addPolicy(t, PolicyInput{ProductID: f.productX, WarehouseID: f.warehouseID, MinQty: qty(10)})
	f.addMove(f.productX, f.locA, qty(4))

	suggestions, err := f.svc.Suggestions(f.ctx, nil, ModeLowStock)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	s := suggestions[0]
	assert.Equal(t, f.productX, s.ProductID)
	assert.Equal(t, qty(4), s.Available)
	assert.Equal(t, qty(10), s.Threshold)
	assert.Equal(t, qty(6), s.SuggestedQty)
}

func TestSuggestionsAboveThreshold(t *testing.T) {
	f := newSuggestionFixture(t)
	f.addPolicy(t, PolicyInput{ProductID: f.productX, WarehouseID: f.warehouseID, MinQty: qty(10)})
	f.addMove(f.productX, f.locA, qty(11))

	suggestions, err := f.svc.Suggestions(f.ctx, nil, ModeLowStock)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSuggestionsAtThresholdTriggers(t *testing.T) {
	f := newSuggestionFixture(t)
	f.addPolicy(t, PolicyInput{ProductID: f.productX, WarehouseID: f.warehouseID, MinQty: qty(10)})
	f.addMove(f.productX, f.locA, qty(10))

	// available == threshold emits a zero-quantity suggestion.
	suggestions, err := f.svc.Suggestions(f.ctx, nil, ModeLowStock)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.True(t, suggestions[0].SuggestedQty.IsZero())
}

func TestSuggestionsSumAcrossLocations(t *testing.T) {
	f := newSuggestionFixture(t)
	f.addPolicy(t, PolicyInput{ProductID: f.productX, WarehouseID: f.warehouseID, MinQty: qty(10)})
	f.addMove(f.productX, f.locA, qty(3))
	f.addMove(f.productX, f.locB, qty(4))

	suggestions, err := f.svc.Suggestions(f.ctx, nil, ModeLowStock)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, qty(7), suggestions[0].Available)
	assert.Equal(t, qty(3), suggestions[0].SuggestedQty)
}

func TestSuggestionsCountReservations(t *testing.T) {
	f := newSuggestionFixture(t)
	f.addPolicy(t, PolicyInput{ProductID: f.productX, WarehouseID: f.warehouseID, MinQty: qty(10)})
	f.addMove(f.productX, f.locA, qty(12))
	f.holds.reservations = append(f.holds.reservations, reservation.Reservation{
		ID: id.New(), TenantID: testTenant, ProductID: f.productX, LocationID: f.locA,
		DocumentID: id.New(), LineID: id.New(), ReservedQty: qty(5),
		Status: reservation.StatusActive, CreatedAt: time.Now(),
	})

	suggestions, err := f.svc.Suggestions(f.ctx, nil, ModeLowStock)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	s := suggestions[0]
	assert.Equal(t, qty(12), s.OnHand)
	assert.Equal(t, qty(5), s.Reserved)
	assert.Equal(t, qty(7), s.Available)
	assert.Equal(t, qty(3), s.SuggestedQty)
}

func TestSuggestionsReorderPointMode(t *testing.T) {
	f := newSuggestionFixture(t)
	f.addPolicy(t, PolicyInput{
		ProductID:    f.productX,
		WarehouseID:  f.warehouseID,
		MinQty:       qty(5),
		ReorderPoint: qtyPtr(20),
	})
	f.addMove(f.productX, f.locA, qty(8))

	// Low-stock mode: 8 > 5, nothing to do.
	suggestions, err := f.svc.Suggestions(f.ctx, nil, ModeLowStock)
	require.NoError(t, err)
	assert.Empty(t, suggestions)

	// Reorder mode uses the reorder point.
	suggestions, err = f.svc.Suggestions(f.ctx, nil, ModeReorderPoint)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, qty(20), suggestions[0].Threshold)
	assert.Equal(t, qty(12), suggestions[0].SuggestedQty)
}

func TestSuggestionsReorderPointFallsBackToMin(t *testing.T) {
	f := newSuggestionFixture(t)
	f.addPolicy(t, PolicyInput{ProductID: f.productX, WarehouseID: f.warehouseID, MinQty: qty(10)})
	f.addMove(f.productX, f.locA, qty(4))

	suggestions, err := f.svc.Suggestions(f.ctx, nil, ModeReorderPoint)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, qty(10), suggestions[0].Threshold)
}

func TestSuggestionsDefaultMode(t *testing.T) {
	f := newSuggestionFixture(t)
	f.addPolicy(t, PolicyInput{ProductID: f.productX, WarehouseID: f.warehouseID, MinQty: qty(10)})

	// No moves at all: available 0, full top-up in the default mode.
	suggestions, err := f.svc.Suggestions(f.ctx, nil, "")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, qty(10), suggestions[0].SuggestedQty)
}

func TestSuggestionsUnknownMode(t *testing.T) {
	f := newSuggestionFixture(t)

	_, err := f.svc.Suggestions(f.ctx, nil, ThresholdMode("PANIC"))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestSuggestionsWarehouseFilter(t *testing.T) {
	f := newSuggestionFixture(t)
	f.addPolicy(t, PolicyInput{ProductID: f.productX, WarehouseID: f.warehouseID, MinQty: qty(10)})

	otherWH := id.New()
	f.addPolicy(t, PolicyInput{ProductID: id.New(), WarehouseID: otherWH, MinQty: qty(10)})

	suggestions, err := f.svc.Suggestions(f.ctx, &f.warehouseID, ModeLowStock)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, f.warehouseID, suggestions[0].WarehouseID)
}

func TestSuggestionsSkipInactivePolicies(t *testing.T) {
	f := newSuggestionFixture(t)
	inactive := false
	f.addPolicy(t, PolicyInput{ProductID: f.productX, WarehouseID: f.warehouseID, MinQty: qty(10), IsActive: &inactive})

	suggestions, err := f.svc.Suggestions(f.ctx, nil, ModeLowStock)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestUpdatePolicy(t *testing.T) {
	f := newSuggestionFixture(t)
	p := f.addPolicy(t, PolicyInput{ProductID: f.productX, WarehouseID: f.warehouseID, MinQty: qty(10)})

	updated, err := f.svc.UpdatePolicy(f.ctx, p.ID, PolicyInput{
		ProductID:    p.ProductID,
		WarehouseID:  p.WarehouseID,
		MinQty:       qty(20),
		ReorderPoint: qtyPtr(30),
	})
	require.NoError(t, err)
	assert.Equal(t, qty(20), updated.MinQty)
	require.NotNil(t, updated.ReorderPoint)
	assert.Equal(t, qty(30), *updated.ReorderPoint)
}
