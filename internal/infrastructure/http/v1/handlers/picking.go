package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kardex/internal/core/id"
	"kardex/internal/domain"
	"kardex/internal/domain/workflows/picking"
	"kardex/internal/infrastructure/http/v1/dto"
)

// WaveHandler handles HTTP requests for picking waves.
type WaveHandler struct {
	*BaseHandler
	service *picking.Service
}

// NewWaveHandler creates a new picking wave handler.
func NewWaveHandler(base *BaseHandler, service *picking.Service) *WaveHandler {
	return &WaveHandler{BaseHandler: base, service: service}
}

// Create handles POST /picking-waves. Seed orders from the request are
// attached one by one so each passes the same membership checks as
// later additions.
func (h *WaveHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateWaveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	wave, err := req.ToEntity(h.Operator(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(ctx, wave); err != nil {
		h.Error(c, err)
		return
	}

	for _, raw := range req.OrderIDs {
		orderID, err := dto.ParseID(raw, "orderIds")
		if err != nil {
			h.Error(c, err)
			return
		}
		if err := h.service.AddOrder(ctx, wave.ID, orderID); err != nil {
			h.Error(c, err)
			return
		}
	}

	created, err := h.service.GetByID(ctx, wave.ID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Get handles GET /picking-waves/:id.
func (h *WaveHandler) Get(c *gin.Context) {
	waveID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	wave, err := h.service.GetByID(c.Request.Context(), waveID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, wave)
}

// Delete handles DELETE /picking-waves/:id.
func (h *WaveHandler) Delete(c *gin.Context) {
	waveID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), waveID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /picking-waves.
func (h *WaveHandler) List(c *gin.Context) {
	filter := picking.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-created_at")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if warehouseID := c.Query("warehouseId"); warehouseID != "" {
		if parsed, err := id.Parse(warehouseID); err == nil {
			filter.WarehouseID = &parsed
		}
	}
	if status := c.Query("status"); status != "" {
		s := picking.WaveStatus(status)
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

// AddOrder handles POST /picking-waves/:id/orders.
func (h *WaveHandler) AddOrder(c *gin.Context) {
	ctx := c.Request.Context()

	waveID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.AddOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	orderID, err := dto.ParseID(req.OrderID, "orderId")
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.AddOrder(ctx, waveID, orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.respondWave(c, waveID)
}

// RemoveOrder handles DELETE /picking-waves/:id/orders/:orderId.
func (h *WaveHandler) RemoveOrder(c *gin.Context) {
	waveID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	orderID, ok := h.ParseIDParam(c, "orderId")
	if !ok {
		return
	}

	if err := h.service.RemoveOrder(c.Request.Context(), waveID, orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.respondWave(c, waveID)
}

// Release handles POST /picking-waves/:id/release. Generates the
// consolidated pick tasks.
func (h *WaveHandler) Release(c *gin.Context) {
	h.waveOp(c, h.service.Release)
}

// CompleteTask handles POST /picking-waves/:id/tasks/:taskId/complete.
func (h *WaveHandler) CompleteTask(c *gin.Context) {
	ctx := c.Request.Context()

	waveID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	taskID, ok := h.ParseIDParam(c, "taskId")
	if !ok {
		return
	}

	var req dto.CompleteTaskRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.CompleteTask(ctx, waveID, taskID, req.PickedQuantity); err != nil {
		h.Error(c, err)
		return
	}

	h.respondWave(c, waveID)
}

// CancelTask handles POST /picking-waves/:id/tasks/:taskId/cancel.
func (h *WaveHandler) CancelTask(c *gin.Context) {
	waveID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	taskID, ok := h.ParseIDParam(c, "taskId")
	if !ok {
		return
	}

	if err := h.service.CancelTask(c.Request.Context(), waveID, taskID); err != nil {
		h.Error(c, err)
		return
	}

	h.respondWave(c, waveID)
}

// Cancel handles POST /picking-waves/:id/cancel.
func (h *WaveHandler) Cancel(c *gin.Context) {
	h.waveOp(c, h.service.Cancel)
}

func (h *WaveHandler) waveOp(c *gin.Context, op func(ctx context.Context, waveID id.ID) error) {
	waveID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := op(c.Request.Context(), waveID); err != nil {
		h.Error(c, err)
		return
	}

	h.respondWave(c, waveID)
}

func (h *WaveHandler) respondWave(c *gin.Context, waveID id.ID) {
	wave, err := h.service.GetByID(c.Request.Context(), waveID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, wave)
}

// RegisterRoutes registers picking wave routes.
func (h *WaveHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/orders", h.AddOrder)
	rg.DELETE("/:id/orders/:orderId", h.RemoveOrder)
	rg.POST("/:id/release", h.Release)
	rg.POST("/:id/tasks/:taskId/complete", h.CompleteTask)
	rg.POST("/:id/tasks/:taskId/cancel", h.CancelTask)
	rg.POST("/:id/cancel", h.Cancel)
}
