package reports

import (
	"context"
	"fmt"
	"time"

	"kardex/internal/core/apperror"
	"kardex/internal/domain/masterdata"
)

// Service provides report generation operations.
type Service struct {
	repo   Repository
	lookup masterdata.Lookup
}

// NewService creates the reports service.
func NewService(repo Repository, lookup masterdata.Lookup) *Service {
	return &Service{repo: repo, lookup: lookup}
}

// GetInOutSummary generates the in/out movement summary.
func (s *Service) GetInOutSummary(ctx context.Context, filter InOutFilter) (*InOutReport, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, apperror.NewValidation("fromDate and toDate are required")
	}
	if filter.FromDate.After(filter.ToDate) {
		return nil, apperror.NewValidation("fromDate must be before toDate")
	}

	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	report, err := s.repo.GetInOutSummary(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get in/out summary: %w", err)
	}

	s.resolveInOutNames(ctx, report)
	report.GeneratedAt = time.Now().UTC()
	return report, nil
}

// GetInventorySummary generates the current inventory summary.
func (s *Service) GetInventorySummary(ctx context.Context, filter InventoryFilter) (*InventoryReport, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	report, err := s.repo.GetInventorySummary(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get inventory summary: %w", err)
	}

	for i := range report.Rows {
		row := &report.Rows[i]
		row.WarehouseName, _ = s.lookup.WarehouseName(ctx, row.WarehouseID)
		if goods, err := s.lookup.Goods(ctx, row.GoodsID); err == nil {
			row.GoodsName = goods.Name
		}
	}
	report.GeneratedAt = time.Now().UTC()
	return report, nil
}

// Name resolution is display-only; lookup misses leave the name blank.
func (s *Service) resolveInOutNames(ctx context.Context, report *InOutReport) {
	for i := range report.Rows {
		row := &report.Rows[i]
		row.WarehouseName, _ = s.lookup.WarehouseName(ctx, row.WarehouseID)
		if goods, err := s.lookup.Goods(ctx, row.GoodsID); err == nil {
			row.GoodsName = goods.Name
		}
	}
}
