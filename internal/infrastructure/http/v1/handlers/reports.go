package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/domain/reports"
)

// ReportHandler serves read-only reporting endpoints.
type ReportHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportHandler creates a new report handler.
func NewReportHandler(base *BaseHandler, service *reports.Service) *ReportHandler {
	return &ReportHandler{BaseHandler: base, service: service}
}

// InOutSummary handles GET /reports/in-out-summary.
func (h *ReportHandler) InOutSummary(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		h.Error(c, apperror.NewValidation("from must be RFC3339").WithDetail("field", "from"))
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		h.Error(c, apperror.NewValidation("to must be RFC3339").WithDetail("field", "to"))
		return
	}

	filter := reports.InOutFilter{
		FromDate:     from,
		ToDate:       to,
		WarehouseIDs: parseIDList(c.QueryArray("warehouseId")),
		GoodsIDs:     parseIDList(c.QueryArray("goodsId")),
		Limit:        h.ParseIntQuery(c, "limit", 100),
		Offset:       h.ParseIntQuery(c, "offset", 0),
	}

	report, err := h.service.GetInOutSummary(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// InventorySummary handles GET /reports/inventory-summary.
func (h *ReportHandler) InventorySummary(c *gin.Context) {
	filter := reports.InventoryFilter{
		WarehouseIDs: parseIDList(c.QueryArray("warehouseId")),
		GoodsIDs:     parseIDList(c.QueryArray("goodsId")),
		ExcludeZero:  c.Query("excludeZero") == "true",
		Limit:        h.ParseIntQuery(c, "limit", 100),
		Offset:       h.ParseIntQuery(c, "offset", 0),
	}

	report, err := h.service.GetInventorySummary(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// parseIDList keeps the values that parse as IDs, dropping the rest.
func parseIDList(raw []string) []id.ID {
	if len(raw) == 0 {
		return nil
	}
	ids := make([]id.ID, 0, len(raw))
	for _, v := range raw {
		if parsed, err := id.Parse(v); err == nil {
			ids = append(ids, parsed)
		}
	}
	return ids
}

// RegisterRoutes registers reporting routes.
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/in-out-summary", h.InOutSummary)
	rg.GET("/inventory-summary", h.InventorySummary)
}
