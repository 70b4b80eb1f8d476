package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/clock"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalogs/location"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/warehouse"
	"stockledger/internal/domain/registers/reservation"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/domain/settings"
	"stockledger/pkg/logger"
)

// Idempotency actions; combined with the tenant and the client key they
// address one cached response.
const (
	actionCreate  = "document.create"
	actionConfirm = "document.confirm"
	actionPost    = "document.post"
	actionCancel  = "document.cancel"
)

// maxNumberAttempts bounds the numbering collision-retry loop on Confirm.
const maxNumberAttempts = 5

// LineInput is one requested document position.
type LineInput struct {
	ProductID      id.ID
	Quantity       types.Quantity
	UnitCost       *types.Money
	FromLocationID *id.ID
	ToLocationID   *id.ID
}

// CreateInput describes a new draft document.
type CreateInput struct {
	Type          Type
	PartyID       *id.ID
	SourceRef     *string
	ScheduledDate *time.Time
	PostingDate   *time.Time
	Comment       string
	Lines         []LineInput

	IdempotencyKey string
}

// UpdateInput patches a draft. Nil fields keep the current value; a non-nil
// Lines pointer replaces the whole line set.
type UpdateInput struct {
	Header *HeaderPatch
	Lines  *[]LineInput
}

// ConfirmInput carries Confirm options.
type ConfirmInput struct {
	IdempotencyKey string
}

// PostInput carries Post options.
type PostInput struct {
	// PostingDate overrides the document's own posting date for the ledger.
	PostingDate *time.Time

	IdempotencyKey string
}

// CancelInput carries Cancel options.
type CancelInput struct {
	IdempotencyKey string
}

// Service orchestrates the document lifecycle: it owns the transitions that
// touch more than the aggregate itself (numbering, reservations, the move
// ledger, audit, idempotent replay).
type Service struct {
	repo         Repository
	settings     settings.Repository
	moves        stock.Repository
	reservations reservation.Repository
	txManager    tx.Manager
	idempotency  IdempotencyCache
	audit        AuditSink
	clock        clock.Clock
	ids          id.Generator
	validator    *lineValidator
}

// ServiceDeps wires the service's collaborators.
type ServiceDeps struct {
	Documents    Repository
	Settings     settings.Repository
	Moves        stock.Repository
	Reservations reservation.Repository
	Products     product.Repository
	Locations    location.Repository
	Warehouses   warehouse.Repository
	Tx           tx.Manager
	Idempotency  IdempotencyCache
	Audit        AuditSink
	Clock        clock.Clock
	IDs          id.Generator
}

// NewService creates the document lifecycle service.
func NewService(d ServiceDeps) *Service {
	return &Service{
		repo:         d.Documents,
		settings:     d.Settings,
		moves:        d.Moves,
		reservations: d.Reservations,
		txManager:    d.Tx,
		idempotency:  d.Idempotency,
		audit:        d.Audit,
		clock:        d.Clock,
		ids:          d.IDs,
		validator: &lineValidator{
			products:   d.Products,
			locations:  d.Locations,
			warehouses: d.Warehouses,
		},
	}
}

// Create makes a new DRAFT document. Lines are optional at this point;
// Confirm requires at least one.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Document, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, apperror.NewValidation("unknown document type").
			WithDetail("document_type", string(in.Type))
	}

	return s.replayOrRun(ctx, tenantID, actionCreate, in.IdempotencyKey, func(ctx context.Context) (*Document, error) {
		now := s.clock.Now()

		doc := NewDraft(s.ids.NewID(), tenantID, in.Type, now)
		doc.PartyID = in.PartyID
		doc.SourceRef = in.SourceRef
		doc.ScheduledDate = in.ScheduledDate
		doc.PostingDate = in.PostingDate
		doc.Comment = in.Comment

		if err := doc.ReplaceLines(s.linesFromInput(in.Lines), now); err != nil {
			return nil, err
		}

		defaultWH, err := s.defaultWarehouseID(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if err := s.validator.ValidateAndResolve(ctx, tenantID, doc.Type, doc.Lines, defaultWH); err != nil {
			return nil, err
		}

		err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.repo.Create(ctx, doc); err != nil {
				return err
			}
			if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
				return err
			}
			s.auditAction(ctx, doc, actionCreate, now)
			return nil
		})
		if err != nil {
			return nil, err
		}

		logger.Info(ctx, "document created",
			"document_id", doc.ID.String(),
			"document_type", string(doc.Type))
		return doc, nil
	})
}

// Update patches a draft's header and/or replaces its lines.
func (s *Service) Update(ctx context.Context, docID id.ID, in UpdateInput) (*Document, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var result *Document
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.loadDocument(ctx, tenantID, docID)
		if err != nil {
			return err
		}
		now := s.clock.Now()

		if in.Header != nil {
			if err := doc.UpdateHeader(*in.Header, now); err != nil {
				return err
			}
		}

		if in.Lines != nil {
			if err := doc.ReplaceLines(s.linesFromInput(*in.Lines), now); err != nil {
				return err
			}
			defaultWH, err := s.defaultWarehouseID(ctx, tenantID)
			if err != nil {
				return err
			}
			if err := s.validator.ValidateAndResolve(ctx, tenantID, doc.Type, doc.Lines, defaultWH); err != nil {
				return err
			}
			if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
				return err
			}
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		result = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Confirm transitions DRAFT → CONFIRMED: lines are revalidated, a document
// number is allocated and, for a DELIVERY, the full requested quantity of
// every line is reserved or the whole operation fails.
//
// Runs SERIALIZABLE so the availability read and the reservation write cannot
// interleave with a concurrent confirm against the same stock.
func (s *Service) Confirm(ctx context.Context, docID id.ID, in ConfirmInput) (*Document, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	return s.replayOrRun(ctx, tenantID, actionConfirm, in.IdempotencyKey, func(ctx context.Context) (*Document, error) {
		var result *Document
		err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
			doc, err := s.loadDocument(ctx, tenantID, docID)
			if err != nil {
				return err
			}
			now := s.clock.Now()

			stg, stgCreated, err := s.loadOrCreateSettings(ctx, tenantID, now)
			if err != nil {
				return err
			}

			if err := s.validator.ValidateAndResolve(ctx, tenantID, doc.Type, doc.Lines, stg.DefaultWarehouseID); err != nil {
				return err
			}

			number, err := s.allocateNumber(ctx, tenantID, stg, string(doc.Type), now)
			if err != nil {
				return err
			}

			var holds []reservation.Reservation
			if doc.Type == TypeDelivery {
				holds, err = s.buildReservations(ctx, tenantID, doc, now)
				if err != nil {
					return err
				}
			}

			if err := doc.Confirm(number, now); err != nil {
				return err
			}
			if doc.Type == TypeDelivery {
				doc.StampReservedQuantities()
			}

			if err := s.repo.Update(ctx, doc); err != nil {
				return err
			}
			if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
				return err
			}
			if len(holds) > 0 {
				if err := s.reservations.CreateBatch(ctx, holds); err != nil {
					return err
				}
			}
			if err := s.saveSettings(ctx, stg, stgCreated); err != nil {
				return err
			}

			s.auditAction(ctx, doc, actionConfirm, now)
			result = doc
			return nil
		})
		if err != nil {
			return nil, err
		}

		logger.Info(ctx, "document confirmed",
			"document_id", result.ID.String(),
			"number", result.Number)
		return result, nil
	})
}

// Post transitions CONFIRMED → POSTED and writes the move ledger batch.
// For stock-removing types under a DISALLOW policy the on-hand balance at
// every source location is re-checked inside the transaction; DELIVERY
// reservations are fulfilled in the same transaction.
func (s *Service) Post(ctx context.Context, docID id.ID, in PostInput) (*Document, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	return s.replayOrRun(ctx, tenantID, actionPost, in.IdempotencyKey, func(ctx context.Context) (*Document, error) {
		var result *Document
		err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
			doc, err := s.loadDocument(ctx, tenantID, docID)
			if err != nil {
				return err
			}
			now := s.clock.Now()

			stg, stgCreated, err := s.loadOrCreateSettings(ctx, tenantID, now)
			if err != nil {
				return err
			}

			if err := doc.Post(now); err != nil {
				return err
			}
			postingDate := doc.EffectivePostingDate(in.PostingDate, now)
			doc.PostingDate = &postingDate

			if doc.Type.RemovesStock() && !stg.AllowsNegativeStock() {
				if err := s.checkOnHand(ctx, tenantID, doc); err != nil {
					return err
				}
			}

			moves, err := BuildMoves(doc, postingDate, now, s.ids)
			if err != nil {
				return err
			}
			if err := s.moves.CreateMoves(ctx, moves); err != nil {
				return err
			}

			if doc.Type == TypeDelivery {
				if _, err := s.reservations.FulfillByDocument(ctx, tenantID, doc.ID, now); err != nil {
					return err
				}
			}

			if err := s.repo.Update(ctx, doc); err != nil {
				return err
			}
			if err := s.saveSettings(ctx, stg, stgCreated); err != nil {
				return err
			}

			s.auditAction(ctx, doc, actionPost, now)
			result = doc
			return nil
		})
		if err != nil {
			return nil, err
		}

		logger.Info(ctx, "document posted",
			"document_id", result.ID.String(),
			"number", result.Number,
			"posting_date", result.PostingDate.Format(time.RFC3339))
		return result, nil
	})
}

// Cancel transitions DRAFT/CONFIRMED → CANCELED and releases any active
// reservations of the document. Canceling an already canceled document is a
// no-op; canceling a posted document fails.
func (s *Service) Cancel(ctx context.Context, docID id.ID, in CancelInput) (*Document, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	return s.replayOrRun(ctx, tenantID, actionCancel, in.IdempotencyKey, func(ctx context.Context) (*Document, error) {
		var result *Document
		err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			doc, err := s.loadDocument(ctx, tenantID, docID)
			if err != nil {
				return err
			}
			now := s.clock.Now()

			alreadyCanceled := doc.Status == StatusCanceled
			if err := doc.Cancel(now); err != nil {
				return err
			}
			if alreadyCanceled {
				result = doc
				return nil
			}

			if err := s.repo.Update(ctx, doc); err != nil {
				return err
			}
			if doc.Type == TypeDelivery {
				released, err := s.reservations.ReleaseByDocument(ctx, tenantID, doc.ID, now)
				if err != nil {
					return err
				}
				if released > 0 {
					logger.Debug(ctx, "reservations released",
						"document_id", doc.ID.String(),
						"count", released)
				}
			}

			s.auditAction(ctx, doc, actionCancel, now)
			result = doc
			return nil
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

// Get returns one document with lines.
func (s *Service) Get(ctx context.Context, docID id.ID) (*Document, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.loadDocument(ctx, tenantID, docID)
}

// List returns document headers with keyset pagination.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Document, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if filter.PageSize <= 0 || filter.PageSize > 500 {
		filter.PageSize = 100
	}
	return s.repo.List(ctx, tenantID, filter)
}

// --- internals ---

// replayOrRun implements idempotent replay: a cached response for
// (tenant, action, key) is returned verbatim before any work happens, and the
// cache is populated only after run succeeded.
func (s *Service) replayOrRun(ctx context.Context, tenantID, action, key string, run func(ctx context.Context) (*Document, error)) (*Document, error) {
	if key != "" {
		payload, found, err := s.idempotency.Get(ctx, tenantID, action, key)
		if err != nil {
			return nil, fmt.Errorf("idempotency lookup: %w", err)
		}
		if found {
			var doc Document
			if err := json.Unmarshal(payload, &doc); err != nil {
				return nil, apperror.NewInternal(fmt.Errorf("decode cached response: %w", err))
			}
			logger.Debug(ctx, "idempotent replay", "action", action)
			return &doc, nil
		}
	}

	doc, err := run(ctx)
	if err != nil {
		return nil, err
	}

	if key != "" {
		payload, merr := json.Marshal(doc)
		if merr == nil {
			if perr := s.idempotency.Put(ctx, tenantID, action, key, payload); perr != nil {
				// The operation itself committed; replay protection is lost
				// for this key but the outcome stands.
				logger.Warn(ctx, "idempotency store failed", "action", action, "error", perr)
			}
		}
	}
	return doc, nil
}

func (s *Service) linesFromInput(inputs []LineInput) []Line {
	lines := make([]Line, 0, len(inputs))
	for _, in := range inputs {
		lines = append(lines, Line{
			LineID:         s.ids.NewID(),
			ProductID:      in.ProductID,
			Quantity:       in.Quantity,
			UnitCost:       in.UnitCost,
			FromLocationID: in.FromLocationID,
			ToLocationID:   in.ToLocationID,
		})
	}
	return lines
}

func (s *Service) loadDocument(ctx context.Context, tenantID string, docID id.ID) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, tenantID, docID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines
	return doc, nil
}

// loadOrCreateSettings returns the tenant's settings, building a default
// aggregate in memory when none exist yet. The caller persists it via
// saveSettings inside the same transaction that consumed a number.
func (s *Service) loadOrCreateSettings(ctx context.Context, tenantID string, now time.Time) (*settings.Settings, bool, error) {
	stg, err := s.settings.GetByTenant(ctx, tenantID)
	if err == nil {
		return stg, false, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, false, err
	}
	return settings.NewDefaults(s.ids.NewID(), tenantID, now), true, nil
}

func (s *Service) saveSettings(ctx context.Context, stg *settings.Settings, created bool) error {
	if created {
		return s.settings.Create(ctx, stg)
	}
	return s.settings.Update(ctx, stg)
}

func (s *Service) defaultWarehouseID(ctx context.Context, tenantID string) (*id.ID, error) {
	stg, err := s.settings.GetByTenant(ctx, tenantID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return stg.DefaultWarehouseID, nil
}

// allocateNumber proposes numbers from the sequence until one is free.
// Consumed counter values are never reused, so a collision burns a number.
func (s *Service) allocateNumber(ctx context.Context, tenantID string, stg *settings.Settings, docType string, now time.Time) (string, error) {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number, err := stg.AllocateDocumentNumber(docType, now)
		if err != nil {
			return "", err
		}
		taken, err := s.repo.ExistsByNumber(ctx, tenantID, number)
		if err != nil {
			return "", fmt.Errorf("check number uniqueness: %w", err)
		}
		if !taken {
			return number, nil
		}
	}
	return "", apperror.NewNumberExhausted(docType, maxNumberAttempts)
}

type stockKey struct {
	product  id.ID
	location id.ID
}

// sourcePairs collects the distinct (product, source location) pairs of the
// document's lines, grouped by product for the ledger queries.
func sourcePairs(doc *Document) map[id.ID][]id.ID {
	locsByProduct := make(map[id.ID][]id.ID)
	seen := make(map[stockKey]bool)
	for _, ln := range doc.Lines {
		if ln.FromLocationID == nil {
			continue
		}
		k := stockKey{ln.ProductID, *ln.FromLocationID}
		if seen[k] {
			continue
		}
		seen[k] = true
		locsByProduct[ln.ProductID] = append(locsByProduct[ln.ProductID], *ln.FromLocationID)
	}
	return locsByProduct
}

// buildReservations checks availability at every source location and returns
// one ACTIVE hold per line, or a RESERVATION_FAILED error carrying every
// shortage. Lines draw down shared availability in line order.
func (s *Service) buildReservations(ctx context.Context, tenantID string, doc *Document, now time.Time) ([]reservation.Reservation, error) {
	available := make(map[stockKey]types.Quantity)
	for productID, locs := range sourcePairs(doc) {
		pid := productID
		balances, err := s.moves.SumDeltas(ctx, tenantID, stock.LevelFilter{ProductID: &pid, LocationIDs: locs})
		if err != nil {
			return nil, fmt.Errorf("sum ledger: %w", err)
		}
		for _, b := range balances {
			available[stockKey{b.ProductID, b.LocationID}] = b.Quantity
		}
		reserved, err := s.reservations.SumActive(ctx, tenantID, &pid, locs)
		if err != nil {
			return nil, fmt.Errorf("sum reservations: %w", err)
		}
		for _, r := range reserved {
			k := stockKey{r.ProductID, r.LocationID}
			available[k] -= r.Quantity
		}
	}

	var shortages []apperror.Shortage
	holds := make([]reservation.Reservation, 0, len(doc.Lines))
	for _, ln := range doc.Lines {
		k := stockKey{ln.ProductID, *ln.FromLocationID}
		if available[k] < ln.Quantity {
			shortages = append(shortages, apperror.Shortage{
				LineID:     ln.LineID.String(),
				ProductID:  ln.ProductID.String(),
				LocationID: ln.FromLocationID.String(),
				Requested:  ln.Quantity.String(),
				Available:  available[k].String(),
			})
			continue
		}
		available[k] -= ln.Quantity
		holds = append(holds, reservation.Reservation{
			ID:          s.ids.NewID(),
			TenantID:    tenantID,
			ProductID:   ln.ProductID,
			LocationID:  *ln.FromLocationID,
			DocumentID:  doc.ID,
			LineID:      ln.LineID,
			ReservedQty: ln.Quantity,
			Status:      reservation.StatusActive,
			CreatedAt:   now,
		})
	}
	if len(shortages) > 0 {
		return nil, apperror.NewReservationFailed(shortages)
	}
	return holds, nil
}

// checkOnHand re-checks the ledger balance at every source location with the
// aggregation rows locked, independent of any reservation the document holds.
func (s *Service) checkOnHand(ctx context.Context, tenantID string, doc *Document) error {
	onHand := make(map[stockKey]types.Quantity)
	for productID, locs := range sourcePairs(doc) {
		pid := productID
		balances, err := s.moves.SumDeltasForUpdate(ctx, tenantID, stock.LevelFilter{ProductID: &pid, LocationIDs: locs})
		if err != nil {
			return fmt.Errorf("sum ledger for update: %w", err)
		}
		for _, b := range balances {
			onHand[stockKey{b.ProductID, b.LocationID}] = b.Quantity
		}
	}

	var shortages []apperror.Shortage
	for _, ln := range doc.Lines {
		if ln.FromLocationID == nil {
			continue
		}
		k := stockKey{ln.ProductID, *ln.FromLocationID}
		if onHand[k] < ln.Quantity {
			shortages = append(shortages, apperror.Shortage{
				LineID:     ln.LineID.String(),
				ProductID:  ln.ProductID.String(),
				LocationID: ln.FromLocationID.String(),
				Requested:  ln.Quantity.String(),
				Available:  onHand[k].String(),
			})
			continue
		}
		onHand[k] -= ln.Quantity
	}
	if len(shortages) > 0 {
		return apperror.NewNegativeStock(shortages)
	}
	return nil
}

func (s *Service) auditAction(ctx context.Context, doc *Document, action string, at time.Time) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return
	}
	entry := AuditEntry{
		TenantID:   doc.TenantID,
		EntityType: "document",
		EntityID:   doc.ID,
		Action:     action,
		Payload:    payload,
		At:         at,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		logger.Warn(ctx, "audit append failed", "action", action, "error", err)
	}
}
