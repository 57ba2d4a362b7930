// Package masterdata_repo implements masterdata.Lookup over the
// reference tables. The tables are maintained outside this service;
// only reads happen here.
package masterdata_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/core/id"
	"kardex/internal/core/types"
	"kardex/internal/domain/masterdata"
	"kardex/internal/infrastructure/storage/postgres"
)

const (
	goodsTable     = "md_goods"
	warehouseTable = "md_warehouses"
	locationTable  = "md_locations"
	partnerTable   = "md_partners"
)

// Lookup is a postgres-backed masterdata.Lookup.
type Lookup struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLookup creates a new masterdata lookup.
func NewLookup(txManager *postgres.TxManager) *Lookup {
	return &Lookup{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Goods returns goods reference data. An unknown ID yields a zero
// record with the ID set, matching the in-memory lookup.
func (l *Lookup) Goods(ctx context.Context, goodsID id.ID) (masterdata.GoodsInfo, error) {
	query, args, err := l.builder.
		Select("id", "name", "sku", "safety_stock").
		From(goodsTable).
		Where(squirrel.Eq{"id": goodsID}).
		ToSql()
	if err != nil {
		return masterdata.GoodsInfo{}, fmt.Errorf("build goods query: %w", err)
	}

	var row struct {
		ID          id.ID          `db:"id"`
		Name        string         `db:"name"`
		SKU         string         `db:"sku"`
		SafetyStock types.Quantity `db:"safety_stock"`
	}
	q := l.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, q, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return masterdata.GoodsInfo{ID: goodsID}, nil
		}
		return masterdata.GoodsInfo{}, fmt.Errorf("get goods: %w", err)
	}

	return masterdata.GoodsInfo{
		ID:          row.ID,
		Name:        row.Name,
		SKU:         row.SKU,
		SafetyStock: row.SafetyStock,
	}, nil
}

// WarehouseName resolves a warehouse display name.
func (l *Lookup) WarehouseName(ctx context.Context, warehouseID id.ID) (string, error) {
	return l.name(ctx, warehouseTable, warehouseID)
}

// LocationName resolves a location display name.
func (l *Lookup) LocationName(ctx context.Context, locationID id.ID) (string, error) {
	return l.name(ctx, locationTable, locationID)
}

// PartnerName resolves a supplier or customer display name.
func (l *Lookup) PartnerName(ctx context.Context, partnerID id.ID) (string, error) {
	return l.name(ctx, partnerTable, partnerID)
}

func (l *Lookup) name(ctx context.Context, table string, entityID id.ID) (string, error) {
	query, args, err := l.builder.
		Select("name").
		From(table).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build name query: %w", err)
	}

	var name string
	q := l.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, q, &name, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("get %s name: %w", table, err)
	}
	return name, nil
}

var _ masterdata.Lookup = (*Lookup)(nil)
