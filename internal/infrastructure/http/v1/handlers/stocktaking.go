package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kardex/internal/core/id"
	"kardex/internal/domain"
	"kardex/internal/domain/workflows/stocktaking"
	"kardex/internal/infrastructure/http/v1/dto"
)

// TakingHandler handles HTTP requests for stocktaking plans.
type TakingHandler struct {
	*BaseHandler
	service *stocktaking.Service
}

// NewTakingHandler creates a new stocktaking handler.
func NewTakingHandler(base *BaseHandler, service *stocktaking.Service) *TakingHandler {
	return &TakingHandler{BaseHandler: base, service: service}
}

// Create handles POST /taking-plans.
func (h *TakingHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateTakingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	plan, err := req.ToEntity(h.Operator(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(ctx, plan); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, plan)
}

// Get handles GET /taking-plans/:id.
func (h *TakingHandler) Get(c *gin.Context) {
	planID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	plan, err := h.service.GetByID(c.Request.Context(), planID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, plan)
}

// Update handles PUT /taking-plans/:id.
func (h *TakingHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	planID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTakingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	plan, err := h.service.GetByID(ctx, planID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyTo(plan); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(ctx, plan); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, plan)
}

// Delete handles DELETE /taking-plans/:id.
func (h *TakingHandler) Delete(c *gin.Context) {
	planID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), planID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /taking-plans.
func (h *TakingHandler) List(c *gin.Context) {
	filter := stocktaking.ListFilter{
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
		s := stocktaking.PlanStatus(status)
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

// Start handles POST /taking-plans/:id/start. Freezes the book
// quantities and generates counting lines.
func (h *TakingHandler) Start(c *gin.Context) {
	h.planOp(c, h.service.Start)
}

// Count handles POST /taking-plans/:id/lines/:lineId/count.
func (h *TakingHandler) Count(c *gin.Context) {
	ctx := c.Request.Context()

	planID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.ParseIDParam(c, "lineId")
	if !ok {
		return
	}

	var req dto.CountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Count(ctx, planID, lineID, req.ActualQuantity); err != nil {
		h.Error(c, err)
		return
	}

	h.respondPlan(c, planID)
}

// Review handles POST /taking-plans/:id/lines/:lineId/review.
func (h *TakingHandler) Review(c *gin.Context) {
	h.lineOp(c, h.service.Review)
}

// Exclude handles POST /taking-plans/:id/lines/:lineId/exclude.
func (h *TakingHandler) Exclude(c *gin.Context) {
	h.lineOp(c, h.service.Exclude)
}

// Adjust handles POST /taking-plans/:id/lines/:lineId/adjust. Posts
// the counted difference to stock.
func (h *TakingHandler) Adjust(c *gin.Context) {
	h.lineOp(c, h.service.Adjust)
}

// Cancel handles POST /taking-plans/:id/cancel.
func (h *TakingHandler) Cancel(c *gin.Context) {
	h.planOp(c, h.service.Cancel)
}

func (h *TakingHandler) planOp(c *gin.Context, op func(ctx context.Context, planID id.ID) error) {
	planID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := op(c.Request.Context(), planID); err != nil {
		h.Error(c, err)
		return
	}

	h.respondPlan(c, planID)
}

func (h *TakingHandler) lineOp(c *gin.Context, op func(ctx context.Context, planID, lineID id.ID) error) {
	planID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.ParseIDParam(c, "lineId")
	if !ok {
		return
	}

	if err := op(c.Request.Context(), planID, lineID); err != nil {
		h.Error(c, err)
		return
	}

	h.respondPlan(c, planID)
}

func (h *TakingHandler) respondPlan(c *gin.Context, planID id.ID) {
	plan, err := h.service.GetByID(c.Request.Context(), planID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, plan)
}

// RegisterRoutes registers stocktaking routes.
func (h *TakingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/start", h.Start)
	rg.POST("/:id/lines/:lineId/count", h.Count)
	rg.POST("/:id/lines/:lineId/review", h.Review)
	rg.POST("/:id/lines/:lineId/exclude", h.Exclude)
	rg.POST("/:id/lines/:lineId/adjust", h.Adjust)
	rg.POST("/:id/cancel", h.Cancel)
}
