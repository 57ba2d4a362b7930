package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/domain/ledger"
	"kardex/internal/domain/stock"
	"kardex/internal/infrastructure/http/v1/dto"
)

// LedgerHandler exposes the append-only inventory log.
type LedgerHandler struct {
	*BaseHandler
	service  *ledger.Service
	stockSvc *stock.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service, stockSvc *stock.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service, stockSvc: stockSvc}
}

// History handles GET /ledger/history.
func (h *LedgerHandler) History(c *gin.Context) {
	var query dto.StockKeyQuery
	if !h.BindQuery(c, &query) {
		return
	}

	key, err := query.ToKey()
	if err != nil {
		h.Error(c, err)
		return
	}

	entries, err := h.service.History(c.Request.Context(), key, h.entryFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": entries})
}

// OrderPostings handles GET /ledger/orders/:businessNo.
func (h *LedgerHandler) OrderPostings(c *gin.Context) {
	businessNo := c.Param("businessNo")
	if businessNo == "" {
		h.Error(c, apperror.NewValidation("business number is required"))
		return
	}

	entries, err := h.service.OrderPostings(c.Request.Context(), businessNo)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": entries})
}

// Window handles GET /ledger/window.
func (h *LedgerHandler) Window(c *gin.Context) {
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

	entries, err := h.service.Window(c.Request.Context(), from, to, h.entryFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": entries})
}

// Reconcile handles GET /ledger/reconcile. Compares the ledger sum for
// a key against the live record.
func (h *LedgerHandler) Reconcile(c *gin.Context) {
	ctx := c.Request.Context()

	var query dto.StockKeyQuery
	if !h.BindQuery(c, &query) {
		return
	}

	key, err := query.ToKey()
	if err != nil {
		h.Error(c, err)
		return
	}

	record, err := h.stockSvc.Get(ctx, key)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.Reconcile(ctx, key, record.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

func (h *LedgerHandler) entryFilter(c *gin.Context) ledger.EntryFilter {
	filter := ledger.EntryFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	for _, op := range c.QueryArray("operation") {
		filter.Operations = append(filter.Operations, entity.OperationType(op))
	}
	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.FromDate = &parsed
		}
	}
	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.ToDate = &parsed
		}
	}

	return filter
}

// RegisterRoutes registers ledger routes.
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/history", h.History)
	rg.GET("/orders/:businessNo", h.OrderPostings)
	rg.GET("/window", h.Window)
	rg.GET("/reconcile", h.Reconcile)
}
