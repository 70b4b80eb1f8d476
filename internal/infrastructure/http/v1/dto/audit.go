package dto

import (
	"encoding/json"
	"time"
)

// AuditEntryResponse is one entry of an entity's change history.
type AuditEntryResponse struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      time.Time       `json:"at"`
}
