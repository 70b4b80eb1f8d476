package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/registers/reservation"
)

// Compile-time check.
var _ reservation.Repository = (*ReservationRepo)(nil)

var reservationColumns = []string{
	"id", "tenant_id", "product_id", "location_id", "document_id", "line_id",
	"reserved_qty", "status", "created_at", "released_at", "fulfilled_at",
}

// ReservationRepo is the PostgreSQL reservation register.
type ReservationRepo struct {
	txManager *TxManager
	batch     *BatchInserter
}

// NewReservationRepo creates the reservation repository.
func NewReservationRepo(txManager *TxManager) *ReservationRepo {
	return &ReservationRepo{
		txManager: txManager,
		batch:     NewBatchInserter(txManager),
	}
}

func (r *ReservationRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// CreateBatch bulk-inserts the holds of one Confirm via COPY.
// Requires the confirming transaction in the context.
func (r *ReservationRepo) CreateBatch(ctx context.Context, reservations []reservation.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(reservations))
	for _, res := range reservations {
		rows = append(rows, []any{
			res.ID, res.TenantID, res.ProductID, res.LocationID, res.DocumentID, res.LineID,
			res.ReservedQty, res.Status, res.CreatedAt, res.ReleasedAt, res.FulfilledAt,
		})
	}

	n, err := r.batch.CopyFromSlice(ctx, "reg_stock_reservations", reservationColumns, rows)
	if err != nil {
		return fmt.Errorf("copy reservations: %w", err)
	}
	if n != int64(len(reservations)) {
		return fmt.Errorf("copy reservations: wrote %d of %d rows", n, len(reservations))
	}
	return nil
}

// SumActive returns ACTIVE hold sums grouped by (product, location).
func (r *ReservationRepo) SumActive(ctx context.Context, tenantID string, productID *id.ID, locationIDs []id.ID) ([]reservation.ReservedRow, error) {
	q := r.builder().
		Select("product_id", "location_id", "SUM(reserved_qty)::BIGINT AS quantity").
		From("reg_stock_reservations").
		Where(squirrel.Eq{"tenant_id": tenantID, "status": reservation.StatusActive}).
		GroupBy("product_id", "location_id")

	if productID != nil {
		q = q.Where(squirrel.Eq{"product_id": *productID})
	}
	if locationIDs != nil {
		q = q.Where(squirrel.Eq{"location_id": locationIDs})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows := make([]reservation.ReservedRow, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("sum active reservations: %w", err)
	}
	return rows, nil
}

func (r *ReservationRepo) closeByDocument(ctx context.Context, tenantID string, documentID id.ID, status reservation.Status, tsColumn string, at time.Time) (int64, error) {
	q := r.builder().
		Update("reg_stock_reservations").
		Set("status", status).
		Set(tsColumn, at).
		Where(squirrel.Eq{
			"tenant_id":   tenantID,
			"document_id": documentID,
			"status":      reservation.StatusActive,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("close reservations: %w", err)
	}
	return result.RowsAffected(), nil
}

// ReleaseByDocument moves the document's ACTIVE holds to RELEASED.
func (r *ReservationRepo) ReleaseByDocument(ctx context.Context, tenantID string, documentID id.ID, at time.Time) (int64, error) {
	return r.closeByDocument(ctx, tenantID, documentID, reservation.StatusReleased, "released_at", at)
}

// FulfillByDocument moves the document's ACTIVE holds to FULFILLED.
func (r *ReservationRepo) FulfillByDocument(ctx context.Context, tenantID string, documentID id.ID, at time.Time) (int64, error) {
	return r.closeByDocument(ctx, tenantID, documentID, reservation.StatusFulfilled, "fulfilled_at", at)
}

// List returns reservation rows with keyset pagination on id.
func (r *ReservationRepo) List(ctx context.Context, tenantID string, filter reservation.Filter) ([]reservation.Reservation, error) {
	q := r.builder().
		Select(reservationColumns...).
		From("reg_stock_reservations").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("id").
		Limit(uint64(filter.PageSize))

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.DocumentID != nil {
		q = q.Where(squirrel.Eq{"document_id": *filter.DocumentID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Cursor != nil {
		q = q.Where(squirrel.Gt{"id": *filter.Cursor})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	reservations := make([]reservation.Reservation, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &reservations, sql, args...); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}
