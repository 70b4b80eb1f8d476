package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/documents"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// AuditHistorian reads the append-only action log back.
type AuditHistorian interface {
	EntityHistory(ctx context.Context, tenantID, entityType string, entityID id.ID, limit int) ([]documents.AuditEntry, error)
}

// AuditHandler serves entity change history.
type AuditHandler struct {
	BaseHandler
	history AuditHistorian
}

// NewAuditHandler creates the audit handler.
func NewAuditHandler(history AuditHistorian) *AuditHandler {
	return &AuditHandler{history: history}
}

// DocumentHistory handles GET /documents/:id/history.
func (h *AuditHandler) DocumentHistory(c *gin.Context) {
	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	tenantID, err := tenant.RequireTenantID(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	entries, err := h.history.EntityHistory(c.Request.Context(), tenantID, "document", docID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.AuditEntryResponse{
			Action:  e.Action,
			Payload: e.Payload,
			At:      e.At,
		})
	}
	h.OK(c, dto.ListResponse[dto.AuditEntryResponse]{Items: items})
}
