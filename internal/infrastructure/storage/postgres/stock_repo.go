package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/domain/registers/stock"
)

// Compile-time check.
var _ stock.Repository = (*StockMoveRepo)(nil)

var moveColumns = []string{
	"id", "tenant_id", "posting_date", "product_id", "location_id",
	"quantity_delta", "document_type", "document_id", "line_id",
	"reason_code", "created_at",
}

// StockMoveRepo is the PostgreSQL move ledger. Rows are written once during
// posting and never updated or deleted.
type StockMoveRepo struct {
	txManager *TxManager
	batch     *BatchInserter
}

// NewStockMoveRepo creates the ledger repository.
func NewStockMoveRepo(txManager *TxManager) *StockMoveRepo {
	return &StockMoveRepo{
		txManager: txManager,
		batch:     NewBatchInserter(txManager),
	}
}

func (r *StockMoveRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// CreateMoves bulk-inserts the posting batch via COPY.
// Requires the posting transaction in the context.
func (r *StockMoveRepo) CreateMoves(ctx context.Context, moves []stock.Move) error {
	if len(moves) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(moves))
	for _, m := range moves {
		rows = append(rows, []any{
			m.ID, m.TenantID, m.PostingDate, m.ProductID, m.LocationID,
			m.QuantityDelta, m.DocumentType, m.DocumentID, m.LineID,
			m.Reason, m.CreatedAt,
		})
	}

	n, err := r.batch.CopyFromSlice(ctx, "reg_stock_moves", moveColumns, rows)
	if err != nil {
		return fmt.Errorf("copy moves: %w", err)
	}
	if n != int64(len(moves)) {
		return fmt.Errorf("copy moves: wrote %d of %d rows", n, len(moves))
	}
	return nil
}

func (r *StockMoveRepo) levelWhere(tenantID string, filter stock.LevelFilter) squirrel.And {
	where := squirrel.And{squirrel.Eq{"tenant_id": tenantID}}
	if filter.ProductID != nil {
		where = append(where, squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.LocationIDs != nil {
		where = append(where, squirrel.Eq{"location_id": filter.LocationIDs})
	}
	return where
}

// SumDeltas returns ledger sums grouped by (product, location).
func (r *StockMoveRepo) SumDeltas(ctx context.Context, tenantID string, filter stock.LevelFilter) ([]stock.BalanceRow, error) {
	q := r.builder().
		Select("product_id", "location_id", "SUM(quantity_delta)::BIGINT AS quantity").
		From("reg_stock_moves").
		Where(r.levelWhere(tenantID, filter)).
		GroupBy("product_id", "location_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows := make([]stock.BalanceRow, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("sum deltas: %w", err)
	}
	return rows, nil
}

// SumDeltasForUpdate aggregates over the matching ledger rows with those rows
// locked for the enclosing transaction. The SERIALIZABLE isolation of the
// posting transaction covers inserts the row locks cannot.
func (r *StockMoveRepo) SumDeltasForUpdate(ctx context.Context, tenantID string, filter stock.LevelFilter) ([]stock.BalanceRow, error) {
	inner := r.builder().
		Select("product_id", "location_id", "quantity_delta").
		From("reg_stock_moves").
		Where(r.levelWhere(tenantID, filter)).
		Suffix("FOR UPDATE")

	innerSQL, args, err := inner.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	sql := fmt.Sprintf(`
		SELECT product_id, location_id, SUM(quantity_delta)::BIGINT AS quantity
		FROM (%s) AS locked
		GROUP BY product_id, location_id
	`, innerSQL)

	rows := make([]stock.BalanceRow, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("sum deltas for update: %w", err)
	}
	return rows, nil
}

// List returns ledger rows in creation order with keyset pagination on id.
func (r *StockMoveRepo) List(ctx context.Context, tenantID string, filter stock.MoveFilter) ([]stock.Move, error) {
	q := r.builder().
		Select(moveColumns...).
		From("reg_stock_moves").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("id").
		Limit(uint64(filter.PageSize))

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.LocationIDs != nil {
		q = q.Where(squirrel.Eq{"location_id": filter.LocationIDs})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"posting_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"posting_date": *filter.ToDate})
	}
	if filter.Cursor != nil {
		q = q.Where(squirrel.Gt{"id": *filter.Cursor})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	moves := make([]stock.Move, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &moves, sql, args...); err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	return moves, nil
}
