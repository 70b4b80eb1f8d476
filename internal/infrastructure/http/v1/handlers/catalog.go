package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/catalogs/location"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/warehouse"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// CatalogHandler serves catalog reference data: products, warehouses and
// locations.
type CatalogHandler struct {
	BaseHandler
	products   *product.Service
	warehouses *warehouse.Service
	locations  *location.Service
}

// NewCatalogHandler creates the catalog handler.
func NewCatalogHandler(products *product.Service, warehouses *warehouse.Service, locations *location.Service) *CatalogHandler {
	return &CatalogHandler{
		products:   products,
		warehouses: warehouses,
		locations:  locations,
	}
}

// CreateProduct handles POST /products.
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.products.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// GetProduct handles GET /products/:id.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	p, err := h.products.Get(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// UpdateProduct handles PATCH /products/:id.
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.products.Update(c.Request.Context(), productID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// ListProducts handles GET /products.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	items, err := h.products.List(c.Request.Context(),
		h.ParseIntQuery(c, "limit", 100),
		h.ParseIntQuery(c, "offset", 0))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse[*product.Product]{Items: items})
}

// CreateWarehouse handles POST /warehouses.
func (h *CatalogHandler) CreateWarehouse(c *gin.Context) {
	var req dto.CreateWarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	wh, err := h.warehouses.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, wh)
}

// GetWarehouse handles GET /warehouses/:id.
func (h *CatalogHandler) GetWarehouse(c *gin.Context) {
	warehouseID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	wh, err := h.warehouses.Get(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, wh)
}

// ListWarehouses handles GET /warehouses.
func (h *CatalogHandler) ListWarehouses(c *gin.Context) {
	items, err := h.warehouses.List(c.Request.Context(),
		h.ParseIntQuery(c, "limit", 100),
		h.ParseIntQuery(c, "offset", 0))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse[*warehouse.Warehouse]{Items: items})
}

// CreateLocation handles POST /locations.
func (h *CatalogHandler) CreateLocation(c *gin.Context) {
	var req dto.CreateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	loc, err := h.locations.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, loc)
}

// GetLocation handles GET /locations/:id.
func (h *CatalogHandler) GetLocation(c *gin.Context) {
	locationID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	loc, err := h.locations.Get(c.Request.Context(), locationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, loc)
}

// ListLocations handles GET /locations.
func (h *CatalogHandler) ListLocations(c *gin.Context) {
	items, err := h.locations.List(c.Request.Context(),
		h.ParseIntQuery(c, "limit", 100),
		h.ParseIntQuery(c, "offset", 0))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse[*location.Location]{Items: items})
}
