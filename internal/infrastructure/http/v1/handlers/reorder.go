package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/reorder"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// ReorderHandler serves reorder policies and replenishment suggestions.
type ReorderHandler struct {
	BaseHandler
	service *reorder.Service
}

// NewReorderHandler creates the reorder handler.
func NewReorderHandler(service *reorder.Service) *ReorderHandler {
	return &ReorderHandler{service: service}
}

// CreatePolicy handles POST /reorder/policies.
func (h *ReorderHandler) CreatePolicy(c *gin.Context) {
	var req dto.ReorderPolicyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	policy, err := h.service.CreatePolicy(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, policy)
}

// GetPolicy handles GET /reorder/policies/:id.
func (h *ReorderHandler) GetPolicy(c *gin.Context) {
	policyID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	policy, err := h.service.GetPolicy(c.Request.Context(), policyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, policy)
}

// UpdatePolicy handles PATCH /reorder/policies/:id.
func (h *ReorderHandler) UpdatePolicy(c *gin.Context) {
	policyID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReorderPolicyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	policy, err := h.service.UpdatePolicy(c.Request.Context(), policyID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, policy)
}

// ListPolicies handles GET /reorder/policies.
func (h *ReorderHandler) ListPolicies(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 100)
	offset := h.ParseIntQuery(c, "offset", 0)

	policies, err := h.service.ListPolicies(c.Request.Context(), limit, offset)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse[*reorder.Policy]{Items: policies})
}

// Suggestions handles GET /reorder/suggestions.
func (h *ReorderHandler) Suggestions(c *gin.Context) {
	warehouseID, ok := h.QueryID(c, "warehouse")
	if !ok {
		return
	}

	mode := reorder.ThresholdMode(c.Query("mode"))
	if mode != "" && !mode.Valid() {
		h.Error(c, apperror.NewValidation("invalid threshold mode").
			WithDetail("mode", string(mode)))
		return
	}

	suggestions, err := h.service.Suggestions(c.Request.Context(), warehouseID, mode)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse[reorder.Suggestion]{Items: suggestions})
}
