package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/domain/snapshot"
	"kardex/internal/infrastructure/http/v1/dto"
)

// SnapshotHandler serves snapshot runs and stock warnings.
type SnapshotHandler struct {
	*BaseHandler
	service *snapshot.Service
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(base *BaseHandler, service *snapshot.Service) *SnapshotHandler {
	return &SnapshotHandler{BaseHandler: base, service: service}
}

// Take handles POST /snapshots. The snapshot date defaults to today;
// a second run for the same date is a conflict.
func (h *SnapshotHandler) Take(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("date must be YYYY-MM-DD").WithDetail("field", "date"))
			return
		}
		date = parsed
	}

	snap, err := h.service.Take(c.Request.Context(), date)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, snap)
}

// Get handles GET /snapshots/:id.
func (h *SnapshotHandler) Get(c *gin.Context) {
	snapshotID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	snap, records, err := h.service.Get(c.Request.Context(), snapshotID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"snapshot": snap,
		"records":  records,
	})
}

// List handles GET /snapshots. The window defaults to the last 30 days.
func (h *SnapshotHandler) List(c *gin.Context) {
	to := time.Now().UTC().Add(24 * time.Hour)
	from := to.Add(-31 * 24 * time.Hour)

	if raw := c.Query("from"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			from = parsed
		}
	}
	if raw := c.Query("to"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			to = parsed
		}
	}

	snapshots, err := h.service.List(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": snapshots})
}

// Warnings handles GET /warnings. Computed from live records on every
// call.
func (h *SnapshotHandler) Warnings(c *gin.Context) {
	filter := snapshot.WarningFilter{}

	if warehouseID := c.Query("warehouseId"); warehouseID != "" {
		if parsed, err := id.Parse(warehouseID); err == nil {
			filter.WarehouseID = &parsed
		}
	}
	if goodsID := c.Query("goodsId"); goodsID != "" {
		if parsed, err := id.Parse(goodsID); err == nil {
			filter.GoodsID = &parsed
		}
	}
	for _, t := range c.QueryArray("type") {
		filter.Types = append(filter.Types, snapshot.WarningType(t))
	}

	warnings, err := h.service.Warnings(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": warnings})
}

// RegisterRule handles POST /warnings/rules.
func (h *SnapshotHandler) RegisterRule(c *gin.Context) {
	var req dto.RegisterRuleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Rules().Register(req.Name, req.Expression); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"name": req.Name})
}

// UnregisterRule handles DELETE /warnings/rules/:name.
func (h *SnapshotHandler) UnregisterRule(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		h.Error(c, apperror.NewValidation("rule name is required"))
		return
	}

	h.service.Rules().Unregister(name)
	h.NoContent(c)
}

// ListRules handles GET /warnings/rules.
func (h *SnapshotHandler) ListRules(c *gin.Context) {
	h.OK(c, gin.H{"names": h.service.Rules().Names()})
}

// RegisterRoutes registers snapshot and warning routes.
func (h *SnapshotHandler) RegisterRoutes(snapshots, warnings *gin.RouterGroup) {
	snapshots.POST("", h.Take)
	snapshots.GET("", h.List)
	snapshots.GET("/:id", h.Get)

	warnings.GET("", h.Warnings)
	warnings.GET("/rules", h.ListRules)
	warnings.POST("/rules", h.RegisterRule)
	warnings.DELETE("/rules/:name", h.UnregisterRule)
}
