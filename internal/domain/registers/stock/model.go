// Package stock provides the append-only stock move ledger and the read-side
// level query engine. On-hand for any (product, location) is defined as the
// sum of all move deltas for that pair; available subtracts active
// reservations.
package stock

import (
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// ReasonCode classifies why a move was written.
type ReasonCode string

const (
	ReasonReceipt    ReasonCode = "RECEIPT"
	ReasonShipment   ReasonCode = "SHIPMENT"
	ReasonTransfer   ReasonCode = "TRANSFER"
	ReasonAdjustment ReasonCode = "ADJUSTMENT"
)

// Move is one immutable ledger row. Moves are created exactly once, during
// document posting, and are never updated or deleted.
type Move struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"tenantId"`

	PostingDate time.Time `db:"posting_date" json:"postingDate"`

	ProductID  id.ID `db:"product_id" json:"productId"`
	LocationID id.ID `db:"location_id" json:"locationId"`

	// QuantityDelta is signed: positive for inbound, negative for outbound.
	QuantityDelta types.Quantity `db:"quantity_delta" json:"quantityDelta"`

	// Provenance back to the posting document.
	DocumentType string `db:"document_type" json:"documentType"`
	DocumentID   id.ID  `db:"document_id" json:"documentId"`
	LineID       id.ID  `db:"line_id" json:"lineId"`

	Reason ReasonCode `db:"reason_code" json:"reasonCode"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Level is the computed stock state for one (product, location) pair.
type Level struct {
	ProductID  id.ID          `json:"productId"`
	LocationID id.ID          `json:"locationId"`
	OnHand     types.Quantity `json:"onHand"`
	Reserved   types.Quantity `json:"reserved"`
	Available  types.Quantity `json:"available"`
}

// BalanceRow is a grouped ledger sum, one row per (product, location).
type BalanceRow struct {
	ProductID  id.ID          `db:"product_id"`
	LocationID id.ID          `db:"location_id"`
	Quantity   types.Quantity `db:"quantity"`
}

// MoveFilter narrows ledger listings.
type MoveFilter struct {
	ProductID   *id.ID
	LocationIDs []id.ID
	FromDate    *time.Time
	ToDate      *time.Time

	// Cursor is the id of the last move of the previous page; move ids are
	// UUIDv7, so "id > cursor" pages in creation order.
	Cursor   *id.ID
	PageSize int
}

// LevelFilter narrows level computations. LocationIDs nil means unfiltered;
// empty slice means "no locations" and yields no rows.
type LevelFilter struct {
	ProductID   *id.ID
	LocationIDs []id.ID
}
