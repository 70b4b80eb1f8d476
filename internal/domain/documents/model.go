// Package documents provides the inventory document aggregate and its
// lifecycle orchestration. A document describes one stock-affecting business
// event (receipt, delivery, transfer, adjustment) as a header plus lines, and
// moves through DRAFT → CONFIRMED → POSTED, with CANCELED reachable from any
// non-posted status.
package documents

import (
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Type enumerates the supported document types.
type Type string

const (
	TypeReceipt    Type = "RECEIPT"
	TypeDelivery   Type = "DELIVERY"
	TypeTransfer   Type = "TRANSFER"
	TypeAdjustment Type = "ADJUSTMENT"
)

// Valid reports whether t is a known document type.
func (t Type) Valid() bool {
	switch t {
	case TypeReceipt, TypeDelivery, TypeTransfer, TypeAdjustment:
		return true
	}
	return false
}

// RemovesStock reports whether posting this type takes stock out of a
// source location (the negative-stock guard applies).
func (t Type) RemovesStock() bool {
	return t == TypeDelivery || t == TypeTransfer
}

// Status enumerates document lifecycle states.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusConfirmed Status = "CONFIRMED"
	StatusPosted    Status = "POSTED"
	StatusCanceled  Status = "CANCELED"
)

// Line is one position of an inventory document.
type Line struct {
	LineID    id.ID          `db:"line_id" json:"lineId"`
	LineNo    int            `db:"line_no" json:"lineNo"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`

	// UnitCost is optional; informational only, never used by posting math.
	UnitCost *types.Money `db:"unit_cost" json:"unitCost,omitempty"`

	// Location fields; the required subset depends on the document type:
	// RECEIPT needs To, DELIVERY needs From, TRANSFER needs both (distinct),
	// ADJUSTMENT needs exactly one of the two.
	FromLocationID *id.ID `db:"from_location_id" json:"fromLocationId,omitempty"`
	ToLocationID   *id.ID `db:"to_location_id" json:"toLocationId,omitempty"`

	// ReservedQuantity is stamped on DELIVERY lines when the document is
	// confirmed and stock is reserved.
	ReservedQuantity *types.Quantity `db:"reserved_quantity" json:"reservedQuantity,omitempty"`
}

// Document is the inventory document aggregate root.
// All mutators take caller-supplied timestamps: the aggregate holds no clock
// and is fully deterministic.
type Document struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"tenantId"`

	Type   Type   `db:"document_type" json:"documentType"`
	Status Status `db:"status" json:"status"`

	// Number is empty until Confirm, then immutable and unique per tenant.
	Number string `db:"number" json:"number,omitempty"`

	// PartyID optionally links a counterparty (supplier, customer).
	PartyID *id.ID `db:"party_id" json:"partyId,omitempty"`

	// SourceRef optionally links an external source document.
	SourceRef *string `db:"source_ref" json:"sourceRef,omitempty"`

	ScheduledDate *time.Time `db:"scheduled_date" json:"scheduledDate,omitempty"`
	PostingDate   *time.Time `db:"posting_date" json:"postingDate,omitempty"`

	Comment string `db:"comment" json:"comment,omitempty"`

	// Version for optimistic locking (incremented by the repository on save).
	Version int `db:"version" json:"version"`

	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	ConfirmedAt *time.Time `db:"confirmed_at" json:"confirmedAt,omitempty"`
	PostedAt    *time.Time `db:"posted_at" json:"postedAt,omitempty"`
	CanceledAt  *time.Time `db:"canceled_at" json:"canceledAt,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// HeaderPatch carries optional header mutations for UpdateHeader.
type HeaderPatch struct {
	PartyID       *id.ID
	SourceRef     *string
	ScheduledDate *time.Time
	PostingDate   *time.Time
	Comment       *string
}

// NewDraft creates a new DRAFT document. Lines are attached separately by
// ReplaceLines so that Create and Update validate them the same way.
func NewDraft(docID id.ID, tenantID string, docType Type, now time.Time) *Document {
	return &Document{
		ID:        docID,
		TenantID:  tenantID,
		Type:      docType,
		Status:    StatusDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Lines:     make([]Line, 0),
	}
}

// UpdateHeader applies a header patch. Legal only while DRAFT.
func (d *Document) UpdateHeader(patch HeaderPatch, now time.Time) error {
	if d.Status != StatusDraft {
		return apperror.NewState("only draft documents can be modified").
			WithDetail("status", string(d.Status))
	}

	if patch.PartyID != nil {
		d.PartyID = patch.PartyID
	}
	if patch.SourceRef != nil {
		d.SourceRef = patch.SourceRef
	}
	if patch.ScheduledDate != nil {
		d.ScheduledDate = patch.ScheduledDate
	}
	if patch.PostingDate != nil {
		d.PostingDate = patch.PostingDate
	}
	if patch.Comment != nil {
		d.Comment = *patch.Comment
	}

	d.UpdatedAt = now
	return nil
}

// ReplaceLines swaps the whole line set. Legal only while DRAFT.
// Line numbers are reassigned sequentially.
func (d *Document) ReplaceLines(lines []Line, now time.Time) error {
	if d.Status != StatusDraft {
		return apperror.NewState("only draft documents can be modified").
			WithDetail("status", string(d.Status))
	}

	for i := range lines {
		lines[i].LineNo = i + 1
	}
	d.Lines = lines
	d.UpdatedAt = now
	return nil
}

// SetPostingDate sets the document's own posting date. Legal while DRAFT.
func (d *Document) SetPostingDate(date time.Time, now time.Time) error {
	if d.Status != StatusDraft {
		return apperror.NewState("only draft documents can be modified").
			WithDetail("status", string(d.Status))
	}
	d.PostingDate = &date
	d.UpdatedAt = now
	return nil
}

// Confirm assigns the document number and transitions DRAFT → CONFIRMED.
// Fails if the document is not DRAFT or has no lines.
func (d *Document) Confirm(number string, now time.Time) error {
	if d.Status != StatusDraft {
		return apperror.NewState("only draft documents can be confirmed").
			WithDetail("status", string(d.Status))
	}
	if len(d.Lines) == 0 {
		return apperror.NewValidation("document has no lines")
	}
	if number == "" {
		return apperror.NewValidation("document number is required")
	}

	d.Number = number
	d.Status = StatusConfirmed
	d.ConfirmedAt = &now
	d.UpdatedAt = now
	return nil
}

// Post transitions CONFIRMED → POSTED. POSTED is terminal.
func (d *Document) Post(now time.Time) error {
	if d.Status != StatusConfirmed {
		return apperror.NewState("only confirmed documents can be posted").
			WithDetail("status", string(d.Status))
	}

	d.Status = StatusPosted
	d.PostedAt = &now
	d.UpdatedAt = now
	return nil
}

// Cancel transitions DRAFT/CONFIRMED → CANCELED. Idempotent when already
// CANCELED. POSTED documents can never be canceled.
func (d *Document) Cancel(now time.Time) error {
	if d.Status == StatusPosted {
		return apperror.NewState("posted documents cannot be canceled")
	}
	if d.Status == StatusCanceled {
		return nil
	}

	d.Status = StatusCanceled
	d.CanceledAt = &now
	d.UpdatedAt = now
	return nil
}

// StampReservedQuantities records the reserved quantity on every line.
// Called during Confirm of a DELIVERY after reservations are created.
func (d *Document) StampReservedQuantities() {
	for i := range d.Lines {
		q := d.Lines[i].Quantity
		d.Lines[i].ReservedQuantity = &q
	}
}

// EffectivePostingDate resolves the posting date: explicit input, else the
// document's own posting date, else today.
func (d *Document) EffectivePostingDate(explicit *time.Time, today time.Time) time.Time {
	if explicit != nil {
		return *explicit
	}
	if d.PostingDate != nil {
		return *d.PostingDate
	}
	return today
}
