package reservation

import (
	"context"
	"time"

	"stockledger/internal/core/id"
)

// Repository defines operations on the reservation register.
// Creation happens only during Confirm of a DELIVERY; release/fulfill only
// during Cancel/Post of that document. The query engine reads sums.
type Repository interface {
	// CreateBatch inserts reservations (used during confirm).
	CreateBatch(ctx context.Context, reservations []Reservation) error

	// SumActive returns ACTIVE holds grouped by (product, location).
	// LocationIDs nil means unfiltered.
	SumActive(ctx context.Context, tenantID string, productID *id.ID, locationIDs []id.ID) ([]ReservedRow, error)

	// ReleaseByDocument flips all ACTIVE reservations of a document to
	// RELEASED. Returns the number of rows affected.
	ReleaseByDocument(ctx context.Context, tenantID string, documentID id.ID, at time.Time) (int64, error)

	// FulfillByDocument flips all ACTIVE reservations of a document to
	// FULFILLED. Returns the number of rows affected.
	FulfillByDocument(ctx context.Context, tenantID string, documentID id.ID, at time.Time) (int64, error)

	// List returns reservations in creation order with keyset pagination.
	List(ctx context.Context, tenantID string, filter Filter) ([]Reservation, error)
}
