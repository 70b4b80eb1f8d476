// Package settings provides the tenant-scoped inventory settings aggregate:
// document numbering sequences and stock policy flags.
package settings

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// NegativeStockPolicy controls the Post-time on-hand guard.
type NegativeStockPolicy string

const (
	NegativeStockDisallow NegativeStockPolicy = "DISALLOW"
	NegativeStockAllow    NegativeStockPolicy = "ALLOW"
)

// ReservationPolicy controls reservation granularity.
// Only full allocation is supported; the value exists so the policy can be
// extended without a schema change.
type ReservationPolicy string

const (
	ReservationFullOnly ReservationPolicy = "FULL_ONLY"
)

// Sequence is one per-document-type numbering counter.
// NextNumber is monotonically increasing and never reused, even when a
// proposed number collides and allocation is retried.
type Sequence struct {
	DocumentType string `db:"document_type" json:"documentType"`
	Prefix       string `db:"prefix" json:"prefix"`
	NextNumber   int64  `db:"next_number" json:"nextNumber"`
	PadWidth     int    `db:"pad_width" json:"padWidth"`
}

// Settings is the per-tenant settings aggregate. Lazily created with
// defaults on first Confirm if absent.
type Settings struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"tenantId"`

	NegativeStockPolicy NegativeStockPolicy `db:"negative_stock_policy" json:"negativeStockPolicy"`
	ReservationPolicy   ReservationPolicy   `db:"reservation_policy" json:"reservationPolicy"`

	DefaultWarehouseID *id.ID `db:"default_warehouse_id" json:"defaultWarehouseId,omitempty"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Sequences []Sequence `db:"-" json:"sequences"`
}

// Default numbering prefixes per document type.
var defaultPrefixes = map[string]string{
	"RECEIPT":    "RCT-",
	"DELIVERY":   "DLV-",
	"TRANSFER":   "TRF-",
	"ADJUSTMENT": "ADJ-",
}

const defaultPadWidth = 6

// NewDefaults creates a settings aggregate with default policies and one
// sequence per document type.
func NewDefaults(settingsID id.ID, tenantID string, now time.Time) *Settings {
	s := &Settings{
		ID:                  settingsID,
		TenantID:            tenantID,
		NegativeStockPolicy: NegativeStockDisallow,
		ReservationPolicy:   ReservationFullOnly,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for _, docType := range []string{"RECEIPT", "DELIVERY", "TRANSFER", "ADJUSTMENT"} {
		s.Sequences = append(s.Sequences, Sequence{
			DocumentType: docType,
			Prefix:       defaultPrefixes[docType],
			NextNumber:   1,
			PadWidth:     defaultPadWidth,
		})
	}
	return s
}

// AllocateDocumentNumber composes "{prefix}{nextNumber}" for the type and
// advances the counter in memory. The caller persists the aggregate in the
// same transaction that consumes the number; a retried allocation consumes a
// fresh counter value (numbers are never reused).
func (s *Settings) AllocateDocumentNumber(docType string, now time.Time) (string, error) {
	for i := range s.Sequences {
		seq := &s.Sequences[i]
		if seq.DocumentType != docType {
			continue
		}
		number := fmt.Sprintf("%s%0*d", seq.Prefix, seq.PadWidth, seq.NextNumber)
		seq.NextNumber++
		s.UpdatedAt = now
		return number, nil
	}
	return "", apperror.NewValidation("unknown document type for numbering").
		WithDetail("document_type", docType)
}

// AllowsNegativeStock reports whether posting may drive on-hand negative.
func (s *Settings) AllowsNegativeStock() bool {
	return s.NegativeStockPolicy == NegativeStockAllow
}

// Repository defines the settings store port.
type Repository interface {
	// GetByTenant returns the tenant's settings, or a NOT_FOUND error when
	// they have not been created yet.
	GetByTenant(ctx context.Context, tenantID string) (*Settings, error)

	// Create inserts a lazily created settings aggregate.
	Create(ctx context.Context, s *Settings) error

	// Update saves policy fields and sequence counters with optimistic
	// locking on Version.
	Update(ctx context.Context, s *Settings) error
}
