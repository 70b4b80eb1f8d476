package documents

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/location"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/warehouse"
)

// lineValidator checks lines against the catalogs and resolves omitted
// locations through the tenant's default warehouse. Runs on create, on line
// replacement and again on confirm (catalogs may have changed in between).
type lineValidator struct {
	products   product.Repository
	locations  location.Repository
	warehouses warehouse.Repository
}

// defaultLocations lazily resolves well-known locations of the default
// warehouse, one catalog lookup per type per validation pass.
type defaultLocations struct {
	v        *lineValidator
	tenantID string

	// explicitWarehouseID comes from tenant settings and wins over the
	// warehouse catalog's default flag.
	explicitWarehouseID *id.ID

	warehouseResolved bool
	warehouseID       *id.ID
	byType            map[location.LocationType]*id.ID
}

func (d *defaultLocations) warehouse(ctx context.Context) (*id.ID, error) {
	if d.warehouseResolved {
		return d.warehouseID, nil
	}
	d.warehouseResolved = true

	if d.explicitWarehouseID != nil {
		d.warehouseID = d.explicitWarehouseID
		return d.warehouseID, nil
	}

	wh, err := d.v.warehouses.FindDefault(ctx, d.tenantID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find default warehouse: %w", err)
	}
	d.warehouseID = &wh.ID
	return d.warehouseID, nil
}

// resolve returns the default location of the given type, or nil when the
// tenant has no default warehouse or the warehouse has no such location.
func (d *defaultLocations) resolve(ctx context.Context, lType location.LocationType) (*id.ID, error) {
	if locID, ok := d.byType[lType]; ok {
		return locID, nil
	}

	whID, err := d.warehouse(ctx)
	if err != nil {
		return nil, err
	}
	if whID == nil {
		d.byType[lType] = nil
		return nil, nil
	}

	loc, err := d.v.locations.FindByWarehouseAndType(ctx, d.tenantID, *whID, lType)
	if err != nil {
		if apperror.IsNotFound(err) {
			d.byType[lType] = nil
			return nil, nil
		}
		return nil, fmt.Errorf("find default location: %w", err)
	}
	d.byType[lType] = &loc.ID
	return &loc.ID, nil
}

// ValidateAndResolve checks every line and fills omitted location fields in
// place. An empty line set is legal here; Confirm rejects it separately.
func (v *lineValidator) ValidateAndResolve(ctx context.Context, tenantID string, docType Type, lines []Line, defaultWarehouseID *id.ID) error {
	defaults := &defaultLocations{
		v:                   v,
		tenantID:            tenantID,
		explicitWarehouseID: defaultWarehouseID,
		byType:              make(map[location.LocationType]*id.ID),
	}

	productCache := make(map[id.ID]*product.Product)
	locationCache := make(map[id.ID]*location.Location)

	for i := range lines {
		ln := &lines[i]

		if !ln.Quantity.IsPositive() {
			return apperror.NewValidation("line quantity must be positive").
				WithDetail("line_no", ln.LineNo).
				WithDetail("quantity", ln.Quantity.String())
		}

		p, ok := productCache[ln.ProductID]
		if !ok {
			var err error
			p, err = v.products.GetByID(ctx, tenantID, ln.ProductID)
			if err != nil {
				return err
			}
			productCache[ln.ProductID] = p
		}
		if !p.IsActive {
			return apperror.NewValidation("product is inactive").
				WithDetail("line_no", ln.LineNo).
				WithDetail("product_id", ln.ProductID.String())
		}
		if !p.IsStockable() {
			return apperror.NewValidation("service products cannot appear on inventory documents").
				WithDetail("line_no", ln.LineNo).
				WithDetail("product_id", ln.ProductID.String())
		}

		if err := v.resolveLineLocations(ctx, docType, ln, defaults); err != nil {
			return err
		}

		for _, locID := range []*id.ID{ln.FromLocationID, ln.ToLocationID} {
			if locID == nil {
				continue
			}
			loc, ok := locationCache[*locID]
			if !ok {
				var err error
				loc, err = v.locations.GetByID(ctx, tenantID, *locID)
				if err != nil {
					return err
				}
				locationCache[*locID] = loc
			}
			if !loc.IsActive {
				return apperror.NewValidation("location is inactive").
					WithDetail("line_no", ln.LineNo).
					WithDetail("location_id", locID.String())
			}
		}
	}

	return nil
}

// resolveLineLocations enforces the per-type location requirements, filling
// the missing side from the default warehouse where the type allows it.
func (v *lineValidator) resolveLineLocations(ctx context.Context, docType Type, ln *Line, defaults *defaultLocations) error {
	switch docType {
	case TypeReceipt:
		if ln.ToLocationID == nil {
			locID, err := defaults.resolve(ctx, location.TypeReceiving)
			if err != nil {
				return err
			}
			if locID == nil {
				return apperror.NewLocationRequired("receipt line needs a destination location and no default could be resolved").
					WithDetail("line_no", ln.LineNo)
			}
			ln.ToLocationID = locID
		}

	case TypeDelivery:
		if ln.FromLocationID == nil {
			locID, err := defaults.resolve(ctx, location.TypeInternal)
			if err != nil {
				return err
			}
			if locID == nil {
				return apperror.NewLocationRequired("delivery line needs a source location and no default could be resolved").
					WithDetail("line_no", ln.LineNo)
			}
			ln.FromLocationID = locID
		}

	case TypeTransfer:
		if ln.FromLocationID == nil || ln.ToLocationID == nil {
			return apperror.NewLocationRequired("transfer line needs explicit source and destination locations").
				WithDetail("line_no", ln.LineNo)
		}
		if *ln.FromLocationID == *ln.ToLocationID {
			return apperror.NewValidation("transfer source and destination must differ").
				WithDetail("line_no", ln.LineNo).
				WithDetail("location_id", ln.FromLocationID.String())
		}

	case TypeAdjustment:
		set := 0
		if ln.FromLocationID != nil {
			set++
		}
		if ln.ToLocationID != nil {
			set++
		}
		if set != 1 {
			return apperror.NewValidation("adjustment line needs exactly one location").
				WithDetail("line_no", ln.LineNo)
		}

	default:
		return apperror.NewValidation("unknown document type").
			WithDetail("document_type", string(docType))
	}

	return nil
}
