package handlers

import (
	"github.com/gin-gonic/gin"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/domain/catalog/product"
	"ventapos/internal/domain/inventory/batch"
	"ventapos/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	*BaseHandler
	service      *product.Service
	batchService *batch.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service, batchService *batch.Service) *ProductHandler {
	return &ProductHandler{
		BaseHandler:  base,
		service:      service,
		batchService: batchService,
	}
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromProduct(p))
}

func (h *ProductHandler) Get(c *gin.Context) {
	productID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}

// GetStock returns the product with derived inventory values computed
// from its batch ledger at read time.
func (h *ProductHandler) GetStock(c *gin.Context) {
	ctx := c.Request.Context()
	productID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	p, err := h.service.GetByID(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	batches, err := h.batchService.AvailableBatches(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	onHand := batch.TotalQuantity(batches)
	h.OK(c, dto.ProductStockResponse{
		ProductResponse: *dto.FromProduct(p),
		OnHand:          onHand,
		InventoryLow:    p.IsInventoryLow(onHand),
		StockValue:      batch.StockValue(batches),
		RetailValue:     p.RetailValue(onHand),
	})
}

func (h *ProductHandler) List(c *gin.Context) {
	filter := product.ListFilter{
		Search: c.Query("search"),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if categoryID := c.Query("categoryId"); categoryID != "" {
		parsed, err := id.Parse(categoryID)
		if err == nil {
			filter.CategoryID = &parsed
		}
	}

	products, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.ProductResponse, len(products))
	for i, p := range products {
		items[i] = dto.FromProduct(p)
	}
	h.OK(c, dto.ListResponse{
		Items:  items,
		Count:  len(items),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

func (h *ProductHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	productID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.GetByID(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := req.ApplyTo(p); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(ctx, p); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}

func (h *ProductHandler) Delete(c *gin.Context) {
	productID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), productID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes registers product routes.
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.GET("/:id/stock", h.GetStock)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}
