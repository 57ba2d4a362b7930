package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kardex/internal/core/id"
	"kardex/internal/core/types"
	"kardex/internal/domain"
	"kardex/internal/domain/workflows/outbound"
	"kardex/internal/infrastructure/http/v1/dto"
)

// OutboundHandler handles HTTP requests for outbound orders.
type OutboundHandler struct {
	*BaseHandler
	service *outbound.Service
}

// NewOutboundHandler creates a new outbound handler.
func NewOutboundHandler(base *BaseHandler, service *outbound.Service) *OutboundHandler {
	return &OutboundHandler{BaseHandler: base, service: service}
}

// Create handles POST /outbound-orders.
func (h *OutboundHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateOutboundRequest
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

// Get handles GET /outbound-orders/:id.
func (h *OutboundHandler) Get(c *gin.Context) {
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

// Update handles PUT /outbound-orders/:id.
func (h *OutboundHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateOutboundRequest
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

// Delete handles DELETE /outbound-orders/:id.
func (h *OutboundHandler) Delete(c *gin.Context) {
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

// List handles GET /outbound-orders.
func (h *OutboundHandler) List(c *gin.Context) {
	filter := outbound.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-created_at")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"
	filter.Unwaved = c.Query("unwaved") == "true"

	if customerID := c.Query("customerId"); customerID != "" {
		if parsed, err := id.Parse(customerID); err == nil {
			filter.CustomerID = &parsed
		}
	}
	if warehouseID := c.Query("warehouseId"); warehouseID != "" {
		if parsed, err := id.Parse(warehouseID); err == nil {
			filter.WarehouseID = &parsed
		}
	}
	if waveID := c.Query("waveId"); waveID != "" {
		if parsed, err := id.Parse(waveID); err == nil {
			filter.WaveID = &parsed
		}
	}
	if status := c.Query("status"); status != "" {
		s := outbound.Status(status)
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

// Audit handles POST /outbound-orders/:id/audit.
func (h *OutboundHandler) Audit(c *gin.Context) {
	h.transition(c, h.service.Audit)
}

// StartPicking handles POST /outbound-orders/:id/start-picking.
func (h *OutboundHandler) StartPicking(c *gin.Context) {
	h.transition(c, h.service.StartPicking)
}

// RecordPick handles POST /outbound-orders/:id/lines/:lineId/pick.
func (h *OutboundHandler) RecordPick(c *gin.Context) {
	h.lineQuantityOp(c, h.service.RecordPick)
}

// MarkReadyToShip handles POST /outbound-orders/:id/ready-to-ship.
func (h *OutboundHandler) MarkReadyToShip(c *gin.Context) {
	h.transition(c, h.service.MarkReadyToShip)
}

// RecordShipment handles POST /outbound-orders/:id/lines/:lineId/ship.
func (h *OutboundHandler) RecordShipment(c *gin.Context) {
	h.lineQuantityOp(c, h.service.RecordShipment)
}

// Complete handles POST /outbound-orders/:id/complete.
func (h *OutboundHandler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

// Cancel handles POST /outbound-orders/:id/cancel.
func (h *OutboundHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

// AttachToWave handles POST /outbound-orders/:id/wave.
func (h *OutboundHandler) AttachToWave(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.AttachWaveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	waveID, err := dto.ParseID(req.WaveID, "waveId")
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.AttachToWave(ctx, orderID, waveID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "order attached to wave")
}

// DetachFromWave handles DELETE /outbound-orders/:id/wave.
func (h *OutboundHandler) DetachFromWave(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DetachFromWave(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "order detached from wave")
}

func (h *OutboundHandler) transition(c *gin.Context, op func(ctx context.Context, orderID id.ID) error) {
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

func (h *OutboundHandler) lineQuantityOp(c *gin.Context, op func(ctx context.Context, orderID, lineID id.ID, quantity types.Quantity) error) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.ParseIDParam(c, "lineId")
	if !ok {
		return
	}

	var req dto.QuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := op(ctx, orderID, lineID, req.Quantity); err != nil {
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

// RegisterRoutes registers outbound order routes.
func (h *OutboundHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/audit", h.Audit)
	rg.POST("/:id/start-picking", h.StartPicking)
	rg.POST("/:id/lines/:lineId/pick", h.RecordPick)
	rg.POST("/:id/ready-to-ship", h.MarkReadyToShip)
	rg.POST("/:id/lines/:lineId/ship", h.RecordShipment)
	rg.POST("/:id/complete", h.Complete)
	rg.POST("/:id/cancel", h.Cancel)
	rg.POST("/:id/wave", h.AttachToWave)
	rg.DELETE("/:id/wave", h.DetachFromWave)
}
