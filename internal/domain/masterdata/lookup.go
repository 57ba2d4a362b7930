// Package masterdata provides read-only lookups into reference data the
// core does not own: goods, warehouses, locations, suppliers, customers.
// The core uses them to resolve display names and safety-stock thresholds
// and to check existence; it never validates or mutates this data.
package masterdata

import (
	"context"

	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// GoodsInfo is the slice of goods master data the core consumes.
type GoodsInfo struct {
	ID          id.ID
	Name        string
	SKU         string
	SafetyStock types.Quantity
}

// Lookup resolves reference data by ID.
type Lookup interface {
	Goods(ctx context.Context, goodsID id.ID) (GoodsInfo, error)
	WarehouseName(ctx context.Context, warehouseID id.ID) (string, error)
	LocationName(ctx context.Context, locationID id.ID) (string, error)
	PartnerName(ctx context.Context, partnerID id.ID) (string, error)
}

// StaticLookup is an in-memory Lookup for tests and embedded deployments.
type StaticLookup struct {
	GoodsByID  map[id.ID]GoodsInfo
	Warehouses map[id.ID]string
	Locations  map[id.ID]string
	Partners   map[id.ID]string
}

// NewStaticLookup creates an empty static lookup.
func NewStaticLookup() *StaticLookup {
	return &StaticLookup{
		GoodsByID:  make(map[id.ID]GoodsInfo),
		Warehouses: make(map[id.ID]string),
		Locations:  make(map[id.ID]string),
		Partners:   make(map[id.ID]string),
	}
}

func (l *StaticLookup) Goods(ctx context.Context, goodsID id.ID) (GoodsInfo, error) {
	if g, ok := l.GoodsByID[goodsID]; ok {
		return g, nil
	}
	return GoodsInfo{ID: goodsID}, nil
}

func (l *StaticLookup) WarehouseName(ctx context.Context, warehouseID id.ID) (string, error) {
	return l.Warehouses[warehouseID], nil
}

func (l *StaticLookup) LocationName(ctx context.Context, locationID id.ID) (string, error) {
	return l.Locations[locationID], nil
}

func (l *StaticLookup) PartnerName(ctx context.Context, partnerID id.ID) (string, error) {
	return l.Partners[partnerID], nil
}

var _ Lookup = (*StaticLookup)(nil)
