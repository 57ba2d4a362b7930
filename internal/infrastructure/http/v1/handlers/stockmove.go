package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kardex/internal/core/id"
	"kardex/internal/domain"
	"kardex/internal/domain/workflows/stockmove"
	"kardex/internal/infrastructure/http/v1/dto"
)

// MoveHandler handles HTTP requests for move orders.
type MoveHandler struct {
	*BaseHandler
	service *stockmove.Service
}

// NewMoveHandler creates a new move order handler.
func NewMoveHandler(base *BaseHandler, service *stockmove.Service) *MoveHandler {
	return &MoveHandler{BaseHandler: base, service: service}
}

// Create handles POST /move-orders.
func (h *MoveHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateMoveRequest
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

// Get handles GET /move-orders/:id.
func (h *MoveHandler) Get(c *gin.Context) {
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

// Update handles PUT /move-orders/:id.
func (h *MoveHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateMoveRequest
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

// Delete handles DELETE /move-orders/:id.
func (h *MoveHandler) Delete(c *gin.Context) {
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

// List handles GET /move-orders.
func (h *MoveHandler) List(c *gin.Context) {
	filter := stockmove.ListFilter{
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
		s := stockmove.Status(status)
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

// Execute handles POST /move-orders/:id/execute.
func (h *MoveHandler) Execute(c *gin.Context) {
	h.transition(c, h.service.Execute)
}

// Complete handles POST /move-orders/:id/complete.
func (h *MoveHandler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

// Cancel handles POST /move-orders/:id/cancel.
func (h *MoveHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *MoveHandler) transition(c *gin.Context, op func(ctx context.Context, orderID id.ID) error) {
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

// RegisterRoutes registers move order routes.
func (h *MoveHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/execute", h.Execute)
	rg.POST("/:id/complete", h.Complete)
	rg.POST("/:id/cancel", h.Cancel)
}
