package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/location"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/warehouse"
)

// Compile-time checks.
var (
	_ product.Repository   = (*ProductRepo)(nil)
	_ warehouse.Repository = (*WarehouseRepo)(nil)
	_ location.Repository  = (*LocationRepo)(nil)
)

func catalogBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// --- products ---

var productColumns = []string{
	"id", "tenant_id", "sku", "name", "product_type",
	"is_active", "version", "created_at", "updated_at",
}

// ProductRepo is the PostgreSQL product catalog.
type ProductRepo struct {
	txManager *TxManager
}

// NewProductRepo creates the product repository.
func NewProductRepo(txManager *TxManager) *ProductRepo {
	return &ProductRepo{txManager: txManager}
}

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	sql, args, err := catalogBuilder().
		Insert("cat_products").
		Columns(productColumns...).
		Values(p.ID, p.TenantID, p.SKU, p.Name, p.Type, p.IsActive, p.Version, p.CreatedAt, p.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepo) getOne(ctx context.Context, where squirrel.Eq, notFoundID any) (*product.Product, error) {
	sql, args, err := catalogBuilder().
		Select(productColumns...).
		From("cat_products").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", notFoundID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepo) GetByID(ctx context.Context, tenantID string, productID id.ID) (*product.Product, error) {
	return r.getOne(ctx, squirrel.Eq{"id": productID, "tenant_id": tenantID}, productID)
}

func (r *ProductRepo) GetBySKU(ctx context.Context, tenantID, sku string) (*product.Product, error) {
	return r.getOne(ctx, squirrel.Eq{"sku": sku, "tenant_id": tenantID}, sku)
}

func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	q := catalogBuilder().
		Update("cat_products").
		Set("name", p.Name).
		Set("is_active", p.IsActive).
		Set("updated_at", p.UpdatedAt).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": p.ID, "tenant_id": p.TenantID, "version": p.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("product", p.ID)
	}
	p.Version++
	return nil
}

func (r *ProductRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*product.Product, error) {
	sql, args, err := catalogBuilder().
		Select(productColumns...).
		From("cat_products").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("sku").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	products := make([]*product.Product, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// --- warehouses ---

var warehouseColumns = []string{
	"id", "tenant_id", "code", "name", "is_default",
	"is_active", "version", "created_at", "updated_at",
}

// WarehouseRepo is the PostgreSQL warehouse catalog.
type WarehouseRepo struct {
	txManager *TxManager
}

// NewWarehouseRepo creates the warehouse repository.
func NewWarehouseRepo(txManager *TxManager) *WarehouseRepo {
	return &WarehouseRepo{txManager: txManager}
}

func (r *WarehouseRepo) Create(ctx context.Context, w *warehouse.Warehouse) error {
	sql, args, err := catalogBuilder().
		Insert("cat_warehouses").
		Columns(warehouseColumns...).
		Values(w.ID, w.TenantID, w.Code, w.Name, w.IsDefault, w.IsActive, w.Version, w.CreatedAt, w.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

func (r *WarehouseRepo) getOne(ctx context.Context, where squirrel.Eq, notFoundID any) (*warehouse.Warehouse, error) {
	sql, args, err := catalogBuilder().
		Select(warehouseColumns...).
		From("cat_warehouses").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var w warehouse.Warehouse
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &w, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("warehouse", notFoundID)
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &w, nil
}

func (r *WarehouseRepo) GetByID(ctx context.Context, tenantID string, warehouseID id.ID) (*warehouse.Warehouse, error) {
	return r.getOne(ctx, squirrel.Eq{"id": warehouseID, "tenant_id": tenantID}, warehouseID)
}

func (r *WarehouseRepo) FindDefault(ctx context.Context, tenantID string) (*warehouse.Warehouse, error) {
	return r.getOne(ctx, squirrel.Eq{"tenant_id": tenantID, "is_default": true, "is_active": true}, "default")
}

func (r *WarehouseRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*warehouse.Warehouse, error) {
	sql, args, err := catalogBuilder().
		Select(warehouseColumns...).
		From("cat_warehouses").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("code").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	warehouses := make([]*warehouse.Warehouse, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &warehouses, sql, args...); err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	return warehouses, nil
}

// --- locations ---

var locationColumns = []string{
	"id", "tenant_id", "warehouse_id", "code", "name", "location_type",
	"is_active", "version", "created_at", "updated_at",
}

// LocationRepo is the PostgreSQL location catalog.
type LocationRepo struct {
	txManager *TxManager
}

// NewLocationRepo creates the location repository.
func NewLocationRepo(txManager *TxManager) *LocationRepo {
	return &LocationRepo{txManager: txManager}
}

func (r *LocationRepo) Create(ctx context.Context, l *location.Location) error {
	sql, args, err := catalogBuilder().
		Insert("cat_locations").
		Columns(locationColumns...).
		Values(l.ID, l.TenantID, l.WarehouseID, l.Code, l.Name, l.Type, l.IsActive, l.Version, l.CreatedAt, l.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

func (r *LocationRepo) GetByID(ctx context.Context, tenantID string, locationID id.ID) (*location.Location, error) {
	sql, args, err := catalogBuilder().
		Select(locationColumns...).
		From("cat_locations").
		Where(squirrel.Eq{"id": locationID, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var l location.Location
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &l, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("location", locationID)
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

func (r *LocationRepo) ListByWarehouse(ctx context.Context, tenantID string, warehouseID id.ID) ([]*location.Location, error) {
	sql, args, err := catalogBuilder().
		Select(locationColumns...).
		From("cat_locations").
		Where(squirrel.Eq{"tenant_id": tenantID, "warehouse_id": warehouseID}).
		OrderBy("code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	locations := make([]*location.Location, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &locations, sql, args...); err != nil {
		return nil, fmt.Errorf("list warehouse locations: %w", err)
	}
	return locations, nil
}

// FindByWarehouseAndType returns the first active location of the type,
// oldest first so the resolved default is stable.
func (r *LocationRepo) FindByWarehouseAndType(ctx context.Context, tenantID string, warehouseID id.ID, lType location.LocationType) (*location.Location, error) {
	sql, args, err := catalogBuilder().
		Select(locationColumns...).
		From("cat_locations").
		Where(squirrel.Eq{
			"tenant_id":     tenantID,
			"warehouse_id":  warehouseID,
			"location_type": lType,
			"is_active":     true,
		}).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var l location.Location
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &l, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("location", string(lType))
		}
		return nil, fmt.Errorf("find location by type: %w", err)
	}
	return &l, nil
}

func (r *LocationRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*location.Location, error) {
	sql, args, err := catalogBuilder().
		Select(locationColumns...).
		From("cat_locations").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("code").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	locations := make([]*location.Location, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &locations, sql, args...); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}
