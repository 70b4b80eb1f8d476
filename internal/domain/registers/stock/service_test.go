package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalogs/location"
	"stockledger/internal/domain/registers/reservation"
)

const testTenant = "tenant-1"

type moveRepoStub struct {
	moves []Move
}

func (r *moveRepoStub) CreateMoves(ctx context.Context, moves []Move) error {
	r.moves = append(r.moves, moves...)
	return nil
}

func (r *moveRepoStub) SumDeltas(ctx context.Context, tenantID string, filter LevelFilter) ([]BalanceRow, error) {
	type key struct{ p, l id.ID }
	sums := make(map[key]*BalanceRow)
	for _, m := range r.moves {
		if m.TenantID != tenantID {
			continue
		}
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		if filter.LocationIDs != nil && !containsID(filter.LocationIDs, m.LocationID) {
			continue
		}
		k := key{m.ProductID, m.LocationID}
		row, ok := sums[k]
		if !ok {
			row = &BalanceRow{ProductID: m.ProductID, LocationID: m.LocationID}
			sums[k] = row
		}
		row.Quantity += m.QuantityDelta
	}
	out := make([]BalanceRow, 0, len(sums))
	for _, row := range sums {
		out = append(out, *row)
	}
	return out, nil
}

func (r *moveRepoStub) SumDeltasForUpdate(ctx context.Context, tenantID string, filter LevelFilter) ([]BalanceRow, error) {
	return r.SumDeltas(ctx, tenantID, filter)
}

func (r *moveRepoStub) List(ctx context.Context, tenantID string, filter MoveFilter) ([]Move, error) {
	out := make([]Move, 0)
	for _, m := range r.moves {
		if m.TenantID != tenantID {
			continue
		}
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		if filter.LocationIDs != nil && !containsID(filter.LocationIDs, m.LocationID) {
			continue
		}
		out = append(out, m)
		if len(out) == filter.PageSize {
			break
		}
	}
	return out, nil
}

func containsID(ids []id.ID, target id.ID) bool {
	for _, v := range ids {
		if v == target {
			return true
		}
	}
	return false
}

type reservationRepoStub struct {
	reservations []reservation.Reservation

	lastFilter reservation.Filter
}

func (r *reservationRepoStub) CreateBatch(ctx context.Context, batch []reservation.Reservation) error {
	r.reservations = append(r.reservations, batch...)
	return nil
}

func (r *reservationRepoStub) SumActive(ctx context.Context, tenantID string, productID *id.ID, locationIDs []id.ID) ([]reservation.ReservedRow, error) {
	type key struct{ p, l id.ID }
	sums := make(map[key]*reservation.ReservedRow)
	for _, hold := range r.reservations {
		if hold.TenantID != tenantID || hold.Status != reservation.StatusActive {
			continue
		}
		if productID != nil && hold.ProductID != *productID {
			continue
		}
		if locationIDs != nil && !containsID(locationIDs, hold.LocationID) {
			continue
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

func (r *reservationRepoStub) ReleaseByDocument(ctx context.Context, tenantID string, documentID id.ID, at time.Time) (int64, error) {
	return 0, nil
}

func (r *reservationRepoStub) FulfillByDocument(ctx context.Context, tenantID string, documentID id.ID, at time.Time) (int64, error) {
	return 0, nil
}

func (r *reservationRepoStub) List(ctx context.Context, tenantID string, filter reservation.Filter) ([]reservation.Reservation, error) {
	r.lastFilter = filter
	out := make([]reservation.Reservation, 0)
	for _, hold := range r.reservations {
		if hold.TenantID != tenantID {
			continue
		}
		if filter.Status != nil && hold.Status != *filter.Status {
			continue
		}
		out = append(out, hold)
	}
	return out, nil
}

type locationRepoStub struct {
	locations []*location.Location
}

func (r *locationRepoStub) Create(ctx context.Context, l *location.Location) error {
	r.locations = append(r.locations, l)
	return nil
}

func (r *locationRepoStub) GetByID(ctx context.Context, tenantID string, locationID id.ID) (*location.Location, error) {
	for _, l := range r.locations {
		if l.TenantID == tenantID && l.ID == locationID {
			return l, nil
		}
	}
	return nil, apperror.NewNotFound("location", locationID)
}

func (r *locationRepoStub) ListByWarehouse(ctx context.Context, tenantID string, warehouseID id.ID) ([]*location.Location, error) {
	out := make([]*location.Location, 0)
	for _, l := range r.locations {
		if l.TenantID == tenantID && l.WarehouseID == warehouseID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *locationRepoStub) FindByWarehouseAndType(ctx context.Context, tenantID string, warehouseID id.ID, lType location.LocationType) (*location.Location, error) {
	for _, l := range r.locations {
		if l.TenantID == tenantID && l.WarehouseID == warehouseID && l.Type == lType && l.IsActive {
			return l, nil
		}
	}
	return nil, apperror.NewNotFound("location", string(lType))
}

func (r *locationRepoStub) List(ctx context.Context, tenantID string, limit, offset int) ([]*location.Location, error) {
	return r.locations, nil
}

type engineFixture struct {
	ctx    context.Context
	engine *QueryEngine

	moves        *moveRepoStub
	reservations *reservationRepoStub
	locations    *locationRepoStub

	warehouseID id.ID
	locA        id.ID
	locB        id.ID
	productX    id.ID
	productY    id.ID
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	now := time.Now()

	f := &engineFixture{
		ctx:          tenant.WithTenantID(context.Background(), testTenant),
		moves:        &moveRepoStub{},
		reservations: &reservationRepoStub{},
		locations:    &locationRepoStub{},
		warehouseID:  id.New(),
		productX:     id.New(),
		productY:     id.New(),
	}
	f.engine = NewQueryEngine(f.moves, f.reservations, f.locations)

	a := location.NewLocation(id.New(), testTenant, f.warehouseID, "A", "A", location.TypeInternal, now)
	b := location.NewLocation(id.New(), testTenant, f.warehouseID, "B", "B", location.TypeInternal, now)
	f.locations.locations = append(f.locations.locations, a, b)
	f.locA = a.ID
	f.locB = b.ID

	return f
}

func (f *engineFixture) addMove(productID, locationID id.ID, delta types.Quantity) {
	f.moves.moves = append(f.moves.moves, Move{
		ID:            id.New(),
		TenantID:      testTenant,
		PostingDate:   time.Now(),
		ProductID:     productID,
		LocationID:    locationID,
		QuantityDelta: delta,
		DocumentType:  "RECEIPT",
		DocumentID:    id.New(),
		LineID:        id.New(),
		Reason:        ReasonReceipt,
		CreatedAt:     time.Now(),
	})
}

func (f *engineFixture) addHold(productID, locationID id.ID, quantity types.Quantity, status reservation.Status) {
	f.reservations.reservations = append(f.reservations.reservations, reservation.Reservation{
		ID:          id.New(),
		TenantID:    testTenant,
		ProductID:   productID,
		LocationID:  locationID,
		DocumentID:  id.New(),
		LineID:      id.New(),
		ReservedQty: quantity,
		Status:      status,
		CreatedAt:   time.Now(),
	})
}

func qty(v float64) types.Quantity { return types.NewQuantityFromFloat64(v) }

func TestLevelsAggregation(t *testing.T) {
	f := newEngineFixture(t)
	f.addMove(f.productX, f.locA, qty(10))
	f.addMove(f.productX, f.locA, qty(-3))
	f.addMove(f.productX, f.locB, qty(5))
	f.addHold(f.productX, f.locA, qty(2), reservation.StatusActive)
	f.addHold(f.productX, f.locA, qty(1), reservation.StatusReleased) // ignored

	levels, err := f.engine.Levels(f.ctx, Query{ProductID: &f.productX})
	require.NoError(t, err)
	require.Len(t, levels, 2)

	byLoc := make(map[id.ID]Level)
	for _, lvl := range levels {
		byLoc[lvl.LocationID] = lvl
	}
	assert.Equal(t, qty(7), byLoc[f.locA].OnHand)
	assert.Equal(t, qty(2), byLoc[f.locA].Reserved)
	assert.Equal(t, qty(5), byLoc[f.locA].Available)
	assert.Equal(t, qty(5), byLoc[f.locB].OnHand)
	assert.Equal(t, qty(0), byLoc[f.locB].Reserved)
}

func TestLevelsReservationWithoutMoves(t *testing.T) {
	f := newEngineFixture(t)
	f.addHold(f.productX, f.locA, qty(4), reservation.StatusActive)

	levels, err := f.engine.Levels(f.ctx, Query{})
	require.NoError(t, err)
	require.Len(t, levels, 1)

	assert.Equal(t, qty(0), levels[0].OnHand)
	assert.Equal(t, qty(4), levels[0].Reserved)
	assert.Equal(t, qty(-4), levels[0].Available)
}

func TestLevelsLocationWinsOverWarehouse(t *testing.T) {
	f := newEngineFixture(t)
	f.addMove(f.productX, f.locA, qty(10))
	f.addMove(f.productX, f.locB, qty(5))

	levels, err := f.engine.Levels(f.ctx, Query{WarehouseID: &f.warehouseID, LocationID: &f.locA})
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, f.locA, levels[0].LocationID)
}

func TestLevelsWarehouseScope(t *testing.T) {
	f := newEngineFixture(t)
	f.addMove(f.productX, f.locA, qty(10))

	// A move in a location outside the warehouse must not show up.
	foreign := id.New()
	f.addMove(f.productX, foreign, qty(99))

	levels, err := f.engine.Levels(f.ctx, Query{WarehouseID: &f.warehouseID})
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, f.locA, levels[0].LocationID)
}

func TestLevelsEmptyWarehouse(t *testing.T) {
	f := newEngineFixture(t)
	f.addMove(f.productX, f.locA, qty(10))

	empty := id.New()
	levels, err := f.engine.Levels(f.ctx, Query{WarehouseID: &empty})
	require.NoError(t, err)
	assert.Empty(t, levels)
}

func TestLevelsSortedOutput(t *testing.T) {
	f := newEngineFixture(t)
	f.addMove(f.productY, f.locB, qty(1))
	f.addMove(f.productX, f.locB, qty(1))
	f.addMove(f.productX, f.locA, qty(1))

	levels, err := f.engine.Levels(f.ctx, Query{})
	require.NoError(t, err)
	require.Len(t, levels, 3)

	for i := 1; i < len(levels); i++ {
		prev, cur := levels[i-1], levels[i]
		if prev.ProductID == cur.ProductID {
			assert.True(t, prev.LocationID.String() < cur.LocationID.String())
		} else {
			assert.True(t, prev.ProductID.String() < cur.ProductID.String())
		}
	}
}

func TestLevelsRequireTenant(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Levels(context.Background(), Query{})
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
}

func TestOnHandFor(t *testing.T) {
	f := newEngineFixture(t)
	f.addMove(f.productX, f.locA, qty(10))
	f.addHold(f.productX, f.locA, qty(3), reservation.StatusActive)

	lvl, err := f.engine.OnHandFor(f.ctx, f.productX, f.locA)
	require.NoError(t, err)
	assert.Equal(t, qty(10), lvl.OnHand)
	assert.Equal(t, qty(7), lvl.Available)

	// Unknown pair yields a zero level, not an error.
	lvl, err = f.engine.OnHandFor(f.ctx, f.productY, f.locB)
	require.NoError(t, err)
	assert.True(t, lvl.OnHand.IsZero())
}

func TestListMovesScopesAndPageSize(t *testing.T) {
	f := newEngineFixture(t)
	for i := 0; i < 5; i++ {
		f.addMove(f.productX, f.locA, qty(1))
	}
	f.addMove(f.productX, f.locB, qty(1))

	moves, err := f.engine.ListMoves(f.ctx, Query{LocationID: &f.locA}, MoveFilter{PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, moves, 3)

	// Zero page size falls back to the default.
	moves, err = f.engine.ListMoves(f.ctx, Query{}, MoveFilter{})
	require.NoError(t, err)
	assert.Len(t, moves, 6)
}

func TestListReservationsClampsPageSize(t *testing.T) {
	f := newEngineFixture(t)
	f.addHold(f.productX, f.locA, qty(1), reservation.StatusActive)

	_, err := f.engine.ListReservations(f.ctx, reservation.Filter{PageSize: 10_000})
	require.NoError(t, err)
	assert.Equal(t, 100, f.reservations.lastFilter.PageSize)
}
