package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kardex/internal/core/id"
	"kardex/internal/domain"
	"kardex/internal/domain/workflows/inbound"
	"kardex/internal/infrastructure/http/v1/dto"
)

// InboundHandler handles HTTP requests for inbound orders.
type InboundHandler struct {
	*BaseHandler
	service *inbound.Service
}

// NewInboundHandler creates a new inbound handler.
func NewInboundHandler(base *BaseHandler, service *inbound.Service) *InboundHandler {
	return &InboundHandler{BaseHandler: base, service: service}
}

// Create handles POST /inbound-orders.
func (h *InboundHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateInboundRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := req.ToEntity(h.Operator(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(ctx, order); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// Get handles GET /inbound-orders/:id.
func (h *InboundHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}

// Update handles PUT /inbound-orders/:id.
func (h *InboundHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateInboundRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyTo(order); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(ctx, order); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}

// Delete handles DELETE /inbound-orders/:id.
func (h *InboundHandler) Delete(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /inbound-orders.
func (h *InboundHandler) List(c *gin.Context) {
	filter := inbound.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-created_at")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if supplierID := c.Query("supplierId"); supplierID != "" {
		if parsed, err := id.Parse(supplierID); err == nil {
			filter.SupplierID = &parsed
		}
	}
	if warehouseID := c.Query("warehouseId"); warehouseID != "" {
		if parsed, err := id.Parse(warehouseID); err == nil {
			filter.WarehouseID = &parsed
		}
	}
	if status := c.Query("status"); status != "" {
		s := inbound.Status(status)
		filter.Status = &s
	}
	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}
	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Audit handles POST /inbound-orders/:id/audit.
func (h *InboundHandler) Audit(c *gin.Context) {
	h.transition(c, h.service.Audit)
}

// StartReceiving handles POST /inbound-orders/:id/start-receiving.
func (h *InboundHandler) StartReceiving(c *gin.Context) {
	h.transition(c, h.service.StartReceiving)
}

// RecordReceipt handles POST /inbound-orders/:id/receipts.
func (h *InboundHandler) RecordReceipt(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.RecordReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	receipts, err := req.ToReceipts()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.RecordReceipt(ctx, orderID, receipts); err != nil {
		h.Error(c, err)
		return
	}

	order, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}

// Complete handles POST /inbound-orders/:id/complete.
func (h *InboundHandler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

// Cancel handles POST /inbound-orders/:id/cancel.
func (h *InboundHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *InboundHandler) transition(c *gin.Context, op func(ctx context.Context, orderID id.ID) error) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := op(ctx, orderID); err != nil {
		h.Error(c, err)
		return
	}

	order, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}

// RegisterRoutes registers inbound order routes.
func (h *InboundHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/audit", h.Audit)
	rg.POST("/:id/start-receiving", h.StartReceiving)
	rg.POST("/:id/receipts", h.RecordReceipt)
	rg.POST("/:id/complete", h.Complete)
	rg.POST("/:id/cancel", h.Cancel)
}
