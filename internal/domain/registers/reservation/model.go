// Package reservation provides provisional holds on stock for outbound
// documents between Confirm and Post/Cancel.
package reservation

import (
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Status enumerates reservation states. ACTIVE transitions to exactly one of
// RELEASED (cancel) or FULFILLED (post); both are terminal.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusReleased  Status = "RELEASED"
	StatusFulfilled Status = "FULFILLED"
)

// Reservation is one hold of reservedQty at a location, tied to the
// confirming document.
type Reservation struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"tenantId"`

	ProductID  id.ID `db:"product_id" json:"productId"`
	LocationID id.ID `db:"location_id" json:"locationId"`
	DocumentID id.ID `db:"document_id" json:"documentId"`
	LineID     id.ID `db:"line_id" json:"lineId"`

	ReservedQty types.Quantity `db:"reserved_qty" json:"reservedQty"`

	Status Status `db:"status" json:"status"`

	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	ReleasedAt  *time.Time `db:"released_at" json:"releasedAt,omitempty"`
	FulfilledAt *time.Time `db:"fulfilled_at" json:"fulfilledAt,omitempty"`
}

// ReservedRow is a grouped sum of ACTIVE holds per (product, location).
type ReservedRow struct {
	ProductID  id.ID          `db:"product_id"`
	LocationID id.ID          `db:"location_id"`
	Quantity   types.Quantity `db:"quantity"`
}

// Filter narrows reservation listings.
type Filter struct {
	ProductID  *id.ID
	DocumentID *id.ID
	Status     *Status

	Cursor   *id.ID
	PageSize int
}
