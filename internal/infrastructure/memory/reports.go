package memory

import (
	"context"
	"sort"

	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/domain/reports"
)

// reportRepo implements reports.Repository by aggregating the embedded
// store's ledger and stock records in process.
type reportRepo struct {
	s *Store
}

// ReportRepository returns the reporting repository.
func (s *Store) ReportRepository() reports.Repository {
	return &reportRepo{s: s}
}

type pairKey struct {
	warehouse id.ID
	goods     id.ID
}

func (r *reportRepo) GetInOutSummary(ctx context.Context, filter reports.InOutFilter) (*reports.InOutReport, error) {
	rows := make(map[pairKey]*reports.InOutRow)

	err := r.s.read(ctx, func() error {
		for _, e := range r.s.entries {
			if e.CreatedAt.Before(filter.FromDate) || !e.CreatedAt.Before(filter.ToDate) {
				continue
			}
			if !idListMatch(filter.WarehouseIDs, e.WarehouseID) || !idListMatch(filter.GoodsIDs, e.GoodsID) {
				continue
			}

			k := pairKey{warehouse: e.WarehouseID, goods: e.GoodsID}
			row, ok := rows[k]
			if !ok {
				row = &reports.InOutRow{WarehouseID: e.WarehouseID, GoodsID: e.GoodsID}
				rows[k] = row
			}

			switch e.Operation {
			case entity.OpInbound:
				row.InboundQuantity += e.QuantityChange
			case entity.OpOutbound:
				row.OutboundQuantity += e.QuantityChange.Abs()
			case entity.OpMoveIn:
				row.MoveInQuantity += e.QuantityChange
			case entity.OpMoveOut:
				row.MoveOutQuantity += e.QuantityChange.Abs()
			case entity.OpTakingAdjust:
				row.AdjustQuantity += e.QuantityChange
			}
			row.NetChange += e.QuantityChange
			row.EntryCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]reports.InOutRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WarehouseID != out[j].WarehouseID {
			return out[i].WarehouseID.String() < out[j].WarehouseID.String()
		}
		return out[i].GoodsID.String() < out[j].GoodsID.String()
	})

	total := int64(len(out))
	return &reports.InOutReport{
		FromDate:  filter.FromDate,
		ToDate:    filter.ToDate,
		Rows:      paginate(out, filter.Limit, filter.Offset),
		TotalRows: total,
	}, nil
}

func (r *reportRepo) GetInventorySummary(ctx context.Context, filter reports.InventoryFilter) (*reports.InventoryReport, error) {
	type agg struct {
		row       reports.InventoryRow
		batches   map[string]struct{}
		locations map[id.ID]struct{}
	}
	rows := make(map[pairKey]*agg)

	err := r.s.read(ctx, func() error {
		for _, rec := range r.s.records {
			if filter.ExcludeZero && rec.Quantity.IsZero() && rec.LockQuantity.IsZero() {
				continue
			}
			if !idListMatch(filter.WarehouseIDs, rec.WarehouseID) || !idListMatch(filter.GoodsIDs, rec.GoodsID) {
				continue
			}

			k := pairKey{warehouse: rec.WarehouseID, goods: rec.GoodsID}
			a, ok := rows[k]
			if !ok {
				a = &agg{
					row:       reports.InventoryRow{WarehouseID: rec.WarehouseID, GoodsID: rec.GoodsID},
					batches:   make(map[string]struct{}),
					locations: make(map[id.ID]struct{}),
				}
				rows[k] = a
			}

			a.row.Quantity += rec.Quantity
			a.row.LockQuantity += rec.LockQuantity
			a.batches[rec.BatchNo] = struct{}{}
			a.locations[rec.LocationID] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]reports.InventoryRow, 0, len(rows))
	for _, a := range rows {
		a.row.Available = a.row.Quantity - a.row.LockQuantity
		a.row.BatchCount = int64(len(a.batches))
		a.row.LocationCount = int64(len(a.locations))
		out = append(out, a.row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WarehouseID != out[j].WarehouseID {
			return out[i].WarehouseID.String() < out[j].WarehouseID.String()
		}
		return out[i].GoodsID.String() < out[j].GoodsID.String()
	})

	total := int64(len(out))
	return &reports.InventoryReport{
		Rows:      paginate(out, filter.Limit, filter.Offset),
		TotalRows: total,
	}, nil
}

func idListMatch(ids []id.ID, v id.ID) bool {
	if len(ids) == 0 {
		return true
	}
	for _, x := range ids {
		if x == v {
			return true
		}
	}
	return false
}
