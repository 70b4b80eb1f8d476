package stock

import (
	"context"
)

// Repository defines operations on the move ledger.
// Writes happen only inside the posting transaction; reads never lock.
type Repository interface {
	// CreateMoves batch inserts moves (used during posting).
	CreateMoves(ctx context.Context, moves []Move) error

	// SumDeltas returns ledger sums grouped by (product, location).
	SumDeltas(ctx context.Context, tenantID string, filter LevelFilter) ([]BalanceRow, error)

	// SumDeltasForUpdate is SumDeltas executed with the ledger aggregation
	// rows locked for the enclosing transaction. Used by the negative-stock
	// guard at Post time.
	SumDeltasForUpdate(ctx context.Context, tenantID string, filter LevelFilter) ([]BalanceRow, error)

	// List returns ledger rows in creation order with keyset pagination.
	List(ctx context.Context, tenantID string, filter MoveFilter) ([]Move, error)
}
