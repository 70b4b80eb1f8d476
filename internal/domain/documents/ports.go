package documents

import (
	"context"
	"encoding/json"
	"time"

	"stockledger/internal/core/id"
)

// Repository defines the document store port.
type Repository interface {
	Create(ctx context.Context, doc *Document) error

	// Update saves the header with optimistic locking on Version.
	Update(ctx context.Context, doc *Document) error

	// GetByID loads the header without lines.
	GetByID(ctx context.Context, tenantID string, docID id.ID) (*Document, error)

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// ExistsByNumber reports whether any document of the tenant already
	// carries the number. Used by the allocation collision-retry loop.
	ExistsByNumber(ctx context.Context, tenantID, number string) (bool, error)

	// List returns document headers in creation order with keyset pagination.
	List(ctx context.Context, tenantID string, filter ListFilter) ([]*Document, error)
}

// ListFilter narrows document listings.
type ListFilter struct {
	Type     *Type
	Status   *Status
	Cursor   *id.ID
	PageSize int
}

// IdempotencyCache stores the full prior response of a mutating operation
// keyed by (tenant, action, client key). Checked first, populated last.
type IdempotencyCache interface {
	// Get returns the cached payload, or found=false on a miss.
	Get(ctx context.Context, tenantID, action, key string) (payload []byte, found bool, err error)

	// Put stores the response payload for replay.
	Put(ctx context.Context, tenantID, action, key string, payload []byte) error
}

// AuditEntry is one append-only action log record.
type AuditEntry struct {
	TenantID   string
	EntityType string
	EntityID   id.ID
	Action     string
	Payload    json.RawMessage
	At         time.Time
}

// AuditSink records orchestration actions. Append-only; failures are logged
// by implementations but never abort the business transaction they observe.
type AuditSink interface {
	Append(ctx context.Context, entry AuditEntry) error
}
