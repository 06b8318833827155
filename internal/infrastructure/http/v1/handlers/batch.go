package handlers

import (
	"github.com/gin-gonic/gin"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/domain/inventory/batch"
	"ventapos/internal/infrastructure/http/v1/dto"
	"ventapos/internal/infrastructure/metrics"
)

// BatchHandler handles HTTP requests for the batch ledger.
type BatchHandler struct {
	*BaseHandler
	service *batch.Service
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(base *BaseHandler, service *batch.Service) *BatchHandler {
	return &BatchHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *BatchHandler) Receive(c *gin.Context) {
	var req dto.ReceiveBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Receive(c.Request.Context(), b); err != nil {
		h.Error(c, err)
		return
	}

	metrics.BatchesReceived.Inc()
	h.Created(c, dto.FromBatch(b))
}

func (h *BatchHandler) Get(c *gin.Context) {
	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromBatch(b))
}

func (h *BatchHandler) List(c *gin.Context) {
	filter := batch.ListFilter{
		IncludeDepleted: c.Query("includeDepleted") == "true",
		Limit:           h.ParseIntQuery(c, "limit", 50),
		Offset:          h.ParseIntQuery(c, "offset", 0),
	}
	if productID := c.Query("productId"); productID != "" {
		parsed, err := id.Parse(productID)
		if err == nil {
			filter.ProductID = &parsed
		}
	}

	batches, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:  dto.FromBatches(batches),
		Count:  len(batches),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

func (h *BatchHandler) SetObsolete(c *gin.Context) {
	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetObsoleteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetObsolete(c.Request.Context(), batchID, req.Obsolete); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "batch updated")
}

func (h *BatchHandler) Delete(c *gin.Context) {
	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), batchID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes registers batch routes.
func (h *BatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Receive)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/obsolete", h.SetObsolete)
	rg.DELETE("/:id", h.Delete)
}
