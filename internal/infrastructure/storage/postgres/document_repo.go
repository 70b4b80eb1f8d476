package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/documents"
)

// Compile-time check.
var _ documents.Repository = (*DocumentRepo)(nil)

var documentColumns = []string{
	"id", "tenant_id", "document_type", "status", "number",
	"party_id", "source_ref", "scheduled_date", "posting_date", "comment",
	"version", "created_at", "updated_at", "confirmed_at", "posted_at", "canceled_at",
}

var documentLineColumns = []string{
	"line_id", "line_no", "product_id", "quantity", "unit_cost",
	"from_location_id", "to_location_id", "reserved_quantity",
}

// DocumentRepo is the PostgreSQL document store.
type DocumentRepo struct {
	txManager *TxManager
}

// NewDocumentRepo creates the document repository.
func NewDocumentRepo(txManager *TxManager) *DocumentRepo {
	return &DocumentRepo{txManager: txManager}
}

func (r *DocumentRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts the header.
func (r *DocumentRepo) Create(ctx context.Context, doc *documents.Document) error {
	q := r.builder().
		Insert("doc_documents").
		Columns(documentColumns...).
		Values(
			doc.ID, doc.TenantID, doc.Type, doc.Status, doc.Number,
			doc.PartyID, doc.SourceRef, doc.ScheduledDate, doc.PostingDate, doc.Comment,
			doc.Version, doc.CreatedAt, doc.UpdatedAt, doc.ConfirmedAt, doc.PostedAt, doc.CanceledAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Update saves the header with optimistic locking on Version.
// The in-memory Version is advanced on success.
func (r *DocumentRepo) Update(ctx context.Context, doc *documents.Document) error {
	q := r.builder().
		Update("doc_documents").
		Set("status", doc.Status).
		Set("number", doc.Number).
		Set("party_id", doc.PartyID).
		Set("source_ref", doc.SourceRef).
		Set("scheduled_date", doc.ScheduledDate).
		Set("posting_date", doc.PostingDate).
		Set("comment", doc.Comment).
		Set("confirmed_at", doc.ConfirmedAt).
		Set("posted_at", doc.PostedAt).
		Set("canceled_at", doc.CanceledAt).
		Set("updated_at", doc.UpdatedAt).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": doc.ID, "tenant_id": doc.TenantID, "version": doc.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("document", doc.ID)
	}

	doc.Version++
	return nil
}

// GetByID loads the header without lines.
func (r *DocumentRepo) GetByID(ctx context.Context, tenantID string, docID id.ID) (*documents.Document, error) {
	q := r.builder().
		Select(documentColumns...).
		From("doc_documents").
		Where(squirrel.Eq{"id": docID, "tenant_id": tenantID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var doc documents.Document
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("document", docID)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// GetLines loads the line set ordered by line number.
func (r *DocumentRepo) GetLines(ctx context.Context, docID id.ID) ([]documents.Line, error) {
	q := r.builder().
		Select(documentLineColumns...).
		From("doc_document_lines").
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	lines := make([]documents.Line, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces the document's line set.
func (r *DocumentRepo) SaveLines(ctx context.Context, docID id.ID, lines []documents.Line) error {
	querier := r.txManager.GetQuerier(ctx)

	delSQL, delArgs, err := r.builder().
		Delete("doc_document_lines").
		Where(squirrel.Eq{"document_id": docID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.builder().
		Insert("doc_document_lines").
		Columns(append([]string{"document_id"}, documentLineColumns...)...)
	for _, ln := range lines {
		q = q.Values(
			docID, ln.LineID, ln.LineNo, ln.ProductID, ln.Quantity, ln.UnitCost,
			ln.FromLocationID, ln.ToLocationID, ln.ReservedQuantity,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

// ExistsByNumber reports whether the tenant already has a document with the
// number.
func (r *DocumentRepo) ExistsByNumber(ctx context.Context, tenantID, number string) (bool, error) {
	var exists bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM doc_documents WHERE tenant_id = $1 AND number = $2)
	`, tenantID, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check number: %w", err)
	}
	return exists, nil
}

// List returns headers in creation order with keyset pagination on id.
func (r *DocumentRepo) List(ctx context.Context, tenantID string, filter documents.ListFilter) ([]*documents.Document, error) {
	q := r.builder().
		Select(documentColumns...).
		From("doc_documents").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("id").
		Limit(uint64(filter.PageSize))

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"document_type": *filter.Type})
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

	docs := make([]*documents.Document, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &docs, sql, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}
