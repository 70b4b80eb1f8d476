package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/registers/reservation"
	"stockledger/internal/domain/registers/stock"
)

// StockHandler serves the read-side stock endpoints.
type StockHandler struct {
	BaseHandler
	query *stock.QueryEngine
}

// NewStockHandler creates the stock handler.
func NewStockHandler(query *stock.QueryEngine) *StockHandler {
	return &StockHandler{query: query}
}

func (h *StockHandler) levelQuery(c *gin.Context) (stock.Query, bool) {
	var q stock.Query
	var ok bool
	if q.ProductID, ok = h.QueryID(c, "product"); !ok {
		return q, false
	}
	if q.WarehouseID, ok = h.QueryID(c, "warehouse"); !ok {
		return q, false
	}
	if q.LocationID, ok = h.QueryID(c, "location"); !ok {
		return q, false
	}
	return q, true
}

// Levels handles GET /stock/levels.
func (h *StockHandler) Levels(c *gin.Context) {
	q, ok := h.levelQuery(c)
	if !ok {
		return
	}

	levels, err := h.query.Levels(c.Request.Context(), q)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, levels)
}

// parseDateQuery accepts RFC3339 or plain dates.
func (h *StockHandler) parseDateQuery(c *gin.Context, key string) (*time.Time, bool) {
	val := c.Query(key)
	if val == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, val); err == nil {
			return &t, true
		}
	}
	h.Error(c, apperror.NewValidation("invalid date").
		WithDetail("field", key).
		WithDetail("value", val))
	return nil, false
}

// Moves handles GET /stock/moves.
func (h *StockHandler) Moves(c *gin.Context) {
	q, ok := h.levelQuery(c)
	if !ok {
		return
	}

	filter := stock.MoveFilter{
		PageSize: h.ParseIntQuery(c, "pageSize", 100),
	}
	if filter.FromDate, ok = h.parseDateQuery(c, "from"); !ok {
		return
	}
	if filter.ToDate, ok = h.parseDateQuery(c, "to"); !ok {
		return
	}
	if filter.Cursor, ok = h.QueryID(c, "cursor"); !ok {
		return
	}

	moves, err := h.query.ListMoves(c.Request.Context(), q, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := listPage(moves, func(m stock.Move) string { return m.ID.String() })
	h.OK(c, resp)
}

// Reservations handles GET /stock/reservations.
func (h *StockHandler) Reservations(c *gin.Context) {
	filter := reservation.Filter{
		PageSize: h.ParseIntQuery(c, "pageSize", 100),
	}
	var ok bool
	if filter.ProductID, ok = h.QueryID(c, "product"); !ok {
		return
	}
	if filter.DocumentID, ok = h.QueryID(c, "document"); !ok {
		return
	}
	if s := c.Query("status"); s != "" {
		status := reservation.Status(s)
		filter.Status = &status
	}
	if filter.Cursor, ok = h.QueryID(c, "cursor"); !ok {
		return
	}

	reservations, err := h.query.ListReservations(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := listPage(reservations, func(r reservation.Reservation) string { return r.ID.String() })
	h.OK(c, resp)
}
