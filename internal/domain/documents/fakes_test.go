package documents

import (
	"context"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/location"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/warehouse"
	"stockledger/internal/domain/registers/reservation"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/domain/settings"
)

// In-memory collaborators for orchestration tests. They mirror the store
// semantics the service relies on: copies on read, optimistic versioning
// left to the real repos.

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (fakeTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeDocumentRepo struct {
	docs    map[id.ID]Document
	lines   map[id.ID][]Line
	taken   map[string]bool
	creates int
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{
		docs:  make(map[id.ID]Document),
		lines: make(map[id.ID][]Line),
		taken: make(map[string]bool),
	}
}

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *Document) error {
	r.creates++
	stored := *doc
	stored.Lines = nil
	r.docs[doc.ID] = stored
	return nil
}

func (r *fakeDocumentRepo) Update(ctx context.Context, doc *Document) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("document", doc.ID)
	}
	doc.Version++
	stored := *doc
	stored.Lines = nil
	r.docs[doc.ID] = stored
	if doc.Number != "" {
		r.taken[doc.Number] = true
	}
	return nil
}

func (r *fakeDocumentRepo) GetByID(ctx context.Context, tenantID string, docID id.ID) (*Document, error) {
	stored, ok := r.docs[docID]
	if !ok || stored.TenantID != tenantID {
		return nil, apperror.NewNotFound("document", docID)
	}
	doc := stored
	return &doc, nil
}

func (r *fakeDocumentRepo) GetLines(ctx context.Context, docID id.ID) ([]Line, error) {
	lines := make([]Line, len(r.lines[docID]))
	copy(lines, r.lines[docID])
	return lines, nil
}

func (r *fakeDocumentRepo) SaveLines(ctx context.Context, docID id.ID, lines []Line) error {
	stored := make([]Line, len(lines))
	copy(stored, lines)
	r.lines[docID] = stored
	return nil
}

func (r *fakeDocumentRepo) ExistsByNumber(ctx context.Context, tenantID, number string) (bool, error) {
	return r.taken[number], nil
}

func (r *fakeDocumentRepo) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Document, error) {
	out := make([]*Document, 0)
	for docID := range r.docs {
		stored := r.docs[docID]
		if stored.TenantID != tenantID {
			continue
		}
		if filter.Type != nil && stored.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && stored.Status != *filter.Status {
			continue
		}
		doc := stored
		out = append(out, &doc)
	}
	return out, nil
}

type fakeSettingsRepo struct {
	byTenant map[string]*settings.Settings
	updates  int
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{byTenant: make(map[string]*settings.Settings)}
}

func (r *fakeSettingsRepo) GetByTenant(ctx context.Context, tenantID string) (*settings.Settings, error) {
	stg, ok := r.byTenant[tenantID]
	if !ok {
		return nil, apperror.NewNotFound("settings", tenantID)
	}
	cp := *stg
	cp.Sequences = make([]settings.Sequence, len(stg.Sequences))
	copy(cp.Sequences, stg.Sequences)
	return &cp, nil
}

func (r *fakeSettingsRepo) Create(ctx context.Context, s *settings.Settings) error {
	r.byTenant[s.TenantID] = s
	return nil
}

func (r *fakeSettingsRepo) Update(ctx context.Context, s *settings.Settings) error {
	r.updates++
	r.byTenant[s.TenantID] = s
	return nil
}

type fakeMoveRepo struct {
	moves []stock.Move
}

func (r *fakeMoveRepo) CreateMoves(ctx context.Context, moves []stock.Move) error {
	r.moves = append(r.moves, moves...)
	return nil
}

func matchesLevelFilter(m stock.Move, filter stock.LevelFilter) bool {
	if filter.ProductID != nil && m.ProductID != *filter.ProductID {
		return false
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
			return false
		}
	}
	return true
}

func (r *fakeMoveRepo) SumDeltas(ctx context.Context, tenantID string, filter stock.LevelFilter) ([]stock.BalanceRow, error) {
	type key struct{ p, l id.ID }
	sums := make(map[key]*stock.BalanceRow)
	for _, m := range r.moves {
		if m.TenantID != tenantID || !matchesLevelFilter(m, filter) {
			continue
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

func (r *fakeMoveRepo) SumDeltasForUpdate(ctx context.Context, tenantID string, filter stock.LevelFilter) ([]stock.BalanceRow, error) {
	return r.SumDeltas(ctx, tenantID, filter)
}

func (r *fakeMoveRepo) List(ctx context.Context, tenantID string, filter stock.MoveFilter) ([]stock.Move, error) {
	out := make([]stock.Move, 0)
	for _, m := range r.moves {
		if m.TenantID != tenantID {
			continue
		}
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

type fakeReservationRepo struct {
	reservations []reservation.Reservation
}

func (r *fakeReservationRepo) CreateBatch(ctx context.Context, batch []reservation.Reservation) error {
	r.reservations = append(r.reservations, batch...)
	return nil
}

func (r *fakeReservationRepo) SumActive(ctx context.Context, tenantID string, productID *id.ID, locationIDs []id.ID) ([]reservation.ReservedRow, error) {
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

func (r *fakeReservationRepo) closeByDocument(tenantID string, documentID id.ID, status reservation.Status, at time.Time) int64 {
	var n int64
	for i := range r.reservations {
		hold := &r.reservations[i]
		if hold.TenantID != tenantID || hold.DocumentID != documentID || hold.Status != reservation.StatusActive {
			continue
		}
		hold.Status = status
		switch status {
		case reservation.StatusReleased:
			hold.ReleasedAt = &at
		case reservation.StatusFulfilled:
			hold.FulfilledAt = &at
		}
		n++
	}
	return n
}

func (r *fakeReservationRepo) ReleaseByDocument(ctx context.Context, tenantID string, documentID id.ID, at time.Time) (int64, error) {
	return r.closeByDocument(tenantID, documentID, reservation.StatusReleased, at), nil
}

func (r *fakeReservationRepo) FulfillByDocument(ctx context.Context, tenantID string, documentID id.ID, at time.Time) (int64, error) {
	return r.closeByDocument(tenantID, documentID, reservation.StatusFulfilled, at), nil
}

func (r *fakeReservationRepo) List(ctx context.Context, tenantID string, filter reservation.Filter) ([]reservation.Reservation, error) {
	out := make([]reservation.Reservation, 0)
	for _, hold := range r.reservations {
		if hold.TenantID != tenantID {
			continue
		}
		if filter.DocumentID != nil && hold.DocumentID != *filter.DocumentID {
			continue
		}
		if filter.Status != nil && hold.Status != *filter.Status {
			continue
		}
		out = append(out, hold)
	}
	return out, nil
}

type fakeProductRepo struct {
	products map[id.ID]*product.Product
}

func (r *fakeProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, tenantID string, productID id.ID) (*product.Product, error) {
	p, ok := r.products[productID]
	if !ok || p.TenantID != tenantID {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (r *fakeProductRepo) GetBySKU(ctx context.Context, tenantID, sku string) (*product.Product, error) {
	for _, p := range r.products {
		if p.TenantID == tenantID && p.SKU == sku {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("product", sku)
}

func (r *fakeProductRepo) Update(ctx context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*product.Product, error) {
	return nil, nil
}

type fakeLocationRepo struct {
	locations map[id.ID]*location.Location
}

func (r *fakeLocationRepo) Create(ctx context.Context, l *location.Location) error {
	r.locations[l.ID] = l
	return nil
}

func (r *fakeLocationRepo) GetByID(ctx context.Context, tenantID string, locationID id.ID) (*location.Location, error) {
	l, ok := r.locations[locationID]
	if !ok || l.TenantID != tenantID {
		return nil, apperror.NewNotFound("location", locationID)
	}
	return l, nil
}

func (r *fakeLocationRepo) ListByWarehouse(ctx context.Context, tenantID string, warehouseID id.ID) ([]*location.Location, error) {
	out := make([]*location.Location, 0)
	for _, l := range r.locations {
		if l.TenantID == tenantID && l.WarehouseID == warehouseID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLocationRepo) FindByWarehouseAndType(ctx context.Context, tenantID string, warehouseID id.ID, lType location.LocationType) (*location.Location, error) {
	for _, l := range r.locations {
		if l.TenantID == tenantID && l.WarehouseID == warehouseID && l.Type == lType && l.IsActive {
			return l, nil
		}
	}
	return nil, apperror.NewNotFound("location", string(lType))
}

func (r *fakeLocationRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*location.Location, error) {
	return nil, nil
}

type fakeWarehouseRepo struct {
	warehouses map[id.ID]*warehouse.Warehouse
}

func (r *fakeWarehouseRepo) Create(ctx context.Context, w *warehouse.Warehouse) error {
	r.warehouses[w.ID] = w
	return nil
}

func (r *fakeWarehouseRepo) GetByID(ctx context.Context, tenantID string, warehouseID id.ID) (*warehouse.Warehouse, error) {
	w, ok := r.warehouses[warehouseID]
	if !ok || w.TenantID != tenantID {
		return nil, apperror.NewNotFound("warehouse", warehouseID)
	}
	return w, nil
}

func (r *fakeWarehouseRepo) FindDefault(ctx context.Context, tenantID string) (*warehouse.Warehouse, error) {
	for _, w := range r.warehouses {
		if w.TenantID == tenantID && w.IsDefault && w.IsActive {
			return w, nil
		}
	}
	return nil, apperror.NewNotFound("warehouse", "default")
}

func (r *fakeWarehouseRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*warehouse.Warehouse, error) {
	return nil, nil
}

type fakeIdempotencyCache struct {
	entries map[string][]byte
}

func newFakeIdempotencyCache() *fakeIdempotencyCache {
	return &fakeIdempotencyCache{entries: make(map[string][]byte)}
}

func (c *fakeIdempotencyCache) Get(ctx context.Context, tenantID, action, key string) ([]byte, bool, error) {
	payload, ok := c.entries[tenantID+"|"+action+"|"+key]
	return payload, ok, nil
}

func (c *fakeIdempotencyCache) Put(ctx context.Context, tenantID, action, key string, payload []byte) error {
	c.entries[tenantID+"|"+action+"|"+key] = payload
	return nil
}

type fakeAuditSink struct {
	entries []AuditEntry
}

func (s *fakeAuditSink) Append(ctx context.Context, entry AuditEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}
