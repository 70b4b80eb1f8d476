package stock

import (
	"context"
	"fmt"
	"sort"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/catalogs/location"
	"stockledger/internal/domain/registers/reservation"
)

// Query selects the scope of a level computation. Location wins over
// warehouse; with neither, all locations are considered.
type Query struct {
	ProductID   *id.ID
	WarehouseID *id.ID
	LocationID  *id.ID
}

// QueryEngine derives stock levels from the move ledger and the reservation
// register. Pure read-side; it never mutates state.
type QueryEngine struct {
	moves        Repository
	reservations reservation.Repository
	locations    location.Repository
}

// NewQueryEngine creates the level query engine.
func NewQueryEngine(moves Repository, reservations reservation.Repository, locations location.Repository) *QueryEngine {
	return &QueryEngine{
		moves:        moves,
		reservations: reservations,
		locations:    locations,
	}
}

// resolveLocations turns the query's location/warehouse filter into a
// location id list. nil means unfiltered.
func (e *QueryEngine) resolveLocations(ctx context.Context, tenantID string, q Query) ([]id.ID, error) {
	if q.LocationID != nil {
		return []id.ID{*q.LocationID}, nil
	}
	if q.WarehouseID != nil {
		locs, err := e.locations.ListByWarehouse(ctx, tenantID, *q.WarehouseID)
		if err != nil {
			return nil, fmt.Errorf("list warehouse locations: %w", err)
		}
		ids := make([]id.ID, 0, len(locs))
		for _, l := range locs {
			ids = append(ids, l.ID)
		}
		// Empty (not nil) slice: a warehouse with no locations has no stock.
		return ids, nil
	}
	return nil, nil
}

type levelKey struct {
	product  id.ID
	location id.ID
}

// Levels computes on-hand, reserved and available per (product, location)
// for the query scope. Pairs with neither moves nor reservations are omitted.
func (e *QueryEngine) Levels(ctx context.Context, q Query) ([]Level, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	locationIDs, err := e.resolveLocations(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	if locationIDs != nil && len(locationIDs) == 0 {
		return []Level{}, nil
	}

	filter := LevelFilter{ProductID: q.ProductID, LocationIDs: locationIDs}

	balances, err := e.moves.SumDeltas(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("sum ledger: %w", err)
	}
	reserved, err := e.reservations.SumActive(ctx, tenantID, q.ProductID, locationIDs)
	if err != nil {
		return nil, fmt.Errorf("sum reservations: %w", err)
	}

	byKey := make(map[levelKey]*Level, len(balances))
	for _, b := range balances {
		k := levelKey{b.ProductID, b.LocationID}
		byKey[k] = &Level{
			ProductID:  b.ProductID,
			LocationID: b.LocationID,
			OnHand:     b.Quantity,
		}
	}
	for _, r := range reserved {
		k := levelKey{r.ProductID, r.LocationID}
		lvl, ok := byKey[k]
		if !ok {
			lvl = &Level{ProductID: r.ProductID, LocationID: r.LocationID}
			byKey[k] = lvl
		}
		lvl.Reserved = r.Quantity
	}

	levels := make([]Level, 0, len(byKey))
	for _, lvl := range byKey {
		lvl.Available = lvl.OnHand - lvl.Reserved
		levels = append(levels, *lvl)
	}

	// Deterministic output order for API responses and tests.
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].ProductID != levels[j].ProductID {
			return levels[i].ProductID.String() < levels[j].ProductID.String()
		}
		return levels[i].LocationID.String() < levels[j].LocationID.String()
	})

	return levels, nil
}

// OnHandFor returns the single on-hand quantity for one (product, location).
// Helper for guards that check a specific source location.
func (e *QueryEngine) OnHandFor(ctx context.Context, productID, locationID id.ID) (Level, error) {
	levels, err := e.Levels(ctx, Query{ProductID: &productID, LocationID: &locationID})
	if err != nil {
		return Level{}, err
	}
	if len(levels) == 0 {
		return Level{ProductID: productID, LocationID: locationID}, nil
	}
	return levels[0], nil
}

// ListMoves returns ledger rows for the filter with keyset pagination.
// A warehouse filter expands to the warehouse's locations.
func (e *QueryEngine) ListMoves(ctx context.Context, q Query, filter MoveFilter) ([]Move, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	locationIDs, err := e.resolveLocations(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	if locationIDs != nil && len(locationIDs) == 0 {
		return []Move{}, nil
	}

	filter.ProductID = q.ProductID
	filter.LocationIDs = locationIDs
	if filter.PageSize <= 0 || filter.PageSize > 500 {
		filter.PageSize = 100
	}

	return e.moves.List(ctx, tenantID, filter)
}

// ListReservations returns reservation rows with keyset pagination.
func (e *QueryEngine) ListReservations(ctx context.Context, filter reservation.Filter) ([]reservation.Reservation, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if filter.PageSize <= 0 || filter.PageSize > 500 {
		filter.PageSize = 100
	}
	return e.reservations.List(ctx, tenantID, filter)
}
