package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"kardex/internal/core/id"
	"kardex/internal/domain/stock"
	"kardex/internal/infrastructure/http/v1/dto"
)

// StockHandler exposes read access to the live stock register. All
// stock movement goes through the order workflows; there is no raw
// write endpoint.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// Get handles GET /stock/record. A key that never saw a posting comes
// back as a zero record, not a 404.
func (h *StockHandler) Get(c *gin.Context) {
	var query dto.StockKeyQuery
	if !h.BindQuery(c, &query) {
		return
	}

	key, err := query.ToKey()
	if err != nil {
		h.Error(c, err)
		return
	}

	record, err := h.service.Get(c.Request.Context(), key)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, record)
}

// Available handles GET /stock/available.
func (h *StockHandler) Available(c *gin.Context) {
	var query dto.StockKeyQuery
	if !h.BindQuery(c, &query) {
		return
	}

	key, err := query.ToKey()
	if err != nil {
		h.Error(c, err)
		return
	}

	available, err := h.service.Available(c.Request.Context(), key)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"key":       key,
		"available": available,
	})
}

// List handles GET /stock.
func (h *StockHandler) List(c *gin.Context) {
	filter := stock.RecordFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	filter.ExcludeZero = c.Query("excludeZero") == "true"

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
	if locationID := c.Query("locationId"); locationID != "" {
		if parsed, err := id.Parse(locationID); err == nil {
			filter.LocationID = &parsed
		}
	}
	if batchNo := c.Query("batchNo"); batchNo != "" {
		filter.BatchNo = &batchNo
	}
	if expiring := c.Query("expiringBefore"); expiring != "" {
		if parsed, err := time.Parse(time.RFC3339, expiring); err == nil {
			filter.ExpiringBefore = &parsed
		}
	}

	records, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"items":  records,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// RegisterRoutes registers stock register routes.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/record", h.Get)
	rg.GET("/available", h.Available)
}
