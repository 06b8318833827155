package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/domain/sales"
	"ventapos/internal/infrastructure/http/v1/dto"
	"ventapos/internal/infrastructure/metrics"
)

// SaleHandler handles HTTP requests for sales.
type SaleHandler struct {
	*BaseHandler
	service *sales.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sales.Service) *SaleHandler {
	return &SaleHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	detail, err := h.service.Sell(c.Request.Context(), input)
	if err != nil {
		if apperror.HasCode(err, apperror.CodeInsufficientStock) {
			metrics.StockRejections.Inc()
		}
		h.Error(c, err)
		return
	}

	metrics.SalesCommitted.Inc()
	h.Created(c, dto.FromSaleDetail(detail))
}

func (h *SaleHandler) Get(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	detail, err := h.service.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSaleDetail(detail))
}

func (h *SaleHandler) List(c *gin.Context) {
	filter := sales.ListFilter{
		SoldBy:          c.Query("soldBy"),
		IncludeReverted: c.Query("includeReverted") == "true",
		Limit:           h.ParseIntQuery(c, "limit", 50),
		Offset:          h.ParseIntQuery(c, "offset", 0),
	}
	if from := c.Query("from"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = &parsed
		}
	}
	if to := c.Query("to"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = &parsed
		}
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.SaleResponse, len(result))
	for i, s := range result {
		items[i] = dto.FromSale(s)
	}
	h.OK(c, dto.ListResponse{
		Items:  items,
		Count:  len(items),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

func (h *SaleHandler) Revert(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Revert(c.Request.Context(), saleID); err != nil {
		h.Error(c, err)
		return
	}

	metrics.SalesReverted.Inc()
	h.Success(c, "sale reverted")
}

func (h *SaleHandler) Delete(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), saleID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes registers sale routes.
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/revert", h.Revert)
	rg.DELETE("/:id", h.Delete)
}
