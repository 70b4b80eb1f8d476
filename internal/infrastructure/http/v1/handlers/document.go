package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/documents"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// DocumentHandler serves the document lifecycle endpoints.
type DocumentHandler struct {
	BaseHandler
	service *documents.Service
}

// NewDocumentHandler creates the document handler.
func NewDocumentHandler(service *documents.Service) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// Create handles POST /documents.
func (h *DocumentHandler) Create(c *gin.Context) {
	var req dto.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToCreateInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Get handles GET /documents/:id.
func (h *DocumentHandler) Get(c *gin.Context) {
	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Get(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// List handles GET /documents.
func (h *DocumentHandler) List(c *gin.Context) {
	filter := documents.ListFilter{
		PageSize: h.ParseIntQuery(c, "pageSize", 100),
	}
	if t := c.Query("type"); t != "" {
		docType := documents.Type(t)
		filter.Type = &docType
	}
	if s := c.Query("status"); s != "" {
		status := documents.Status(s)
		filter.Status = &status
	}
	cursor, ok := h.QueryID(c, "cursor")
	if !ok {
		return
	}
	filter.Cursor = cursor

	docs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.ListResponse[*documents.Document]{Items: docs}
	if len(docs) > 0 {
		resp.NextCursor = docs[len(docs)-1].ID.String()
	}
	h.OK(c, resp)
}

// Update handles PATCH /documents/:id.
func (h *DocumentHandler) Update(c *gin.Context) {
	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToUpdateInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Update(c.Request.Context(), docID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Confirm handles POST /documents/:id/confirm.
func (h *DocumentHandler) Confirm(c *gin.Context) {
	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.ConfirmDocumentRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Confirm(c.Request.Context(), docID, documents.ConfirmInput{
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Post handles POST /documents/:id/post.
func (h *DocumentHandler) Post(c *gin.Context) {
	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.PostDocumentRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Post(c.Request.Context(), docID, documents.PostInput{
		PostingDate:    req.PostingDate,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Cancel handles POST /documents/:id/cancel.
func (h *DocumentHandler) Cancel(c *gin.Context) {
	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelDocumentRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Cancel(c.Request.Context(), docID, documents.CancelInput{
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}
