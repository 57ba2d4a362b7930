// Package stockmove provides the intra-warehouse stock move workflow.
package stockmove

import (
	"context"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// Status is the move order lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusExecuting Status = "EXECUTING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Order moves goods between locations inside one warehouse. Execution
// posts a MOVE_OUT and a MOVE_IN leg per item as one atomic pair.
type Order struct {
	entity.OrderHeader

	Status Status `db:"status" json:"status"`

	// Table part: goods to move
	Items []Item `db:"-" json:"items"`
}

// Item is one goods line on a move order.
type Item struct {
	// Line identification
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	GoodsID id.ID  `db:"goods_id" json:"goodsId"`
	BatchNo string `db:"batch_no" json:"batchNo"`

	FromLocationID id.ID `db:"from_location_id" json:"fromLocationId"`
	ToLocationID   id.ID `db:"to_location_id" json:"toLocationId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
}

// FromKey returns the source stock key.
func (i *Item) FromKey(warehouseID id.ID) entity.StockKey {
	return entity.StockKey{
		WarehouseID: warehouseID,
		GoodsID:     i.GoodsID,
		LocationID:  i.FromLocationID,
		BatchNo:     i.BatchNo,
	}
}

// ToKey returns the destination stock key.
func (i *Item) ToKey(warehouseID id.ID) entity.StockKey {
	return entity.StockKey{
		WarehouseID: warehouseID,
		GoodsID:     i.GoodsID,
		LocationID:  i.ToLocationID,
		BatchNo:     i.BatchNo,
	}
}

// NewOrder creates a pending move order.
func NewOrder(warehouseID id.ID, operator string) *Order {
	return &Order{
		OrderHeader: entity.NewOrderHeader(warehouseID, operator),
		Status:      StatusPending,
		Items:       make([]Item, 0),
	}
}

// AddItem appends a move line.
func (o *Order) AddItem(goodsID, fromLocationID, toLocationID id.ID, batchNo string, qty types.Quantity) *Item {
	item := Item{
		LineID:         id.New(),
		LineNo:         len(o.Items) + 1,
		GoodsID:        goodsID,
		BatchNo:        batchNo,
		FromLocationID: fromLocationID,
		ToLocationID:   toLocationID,
		Quantity:       qty,
	}
	o.Items = append(o.Items, item)
	return &o.Items[len(o.Items)-1]
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.OrderHeader.Validate(ctx); err != nil {
		return err
	}

	if len(o.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	for i := range o.Items {
		item := &o.Items[i]
		if id.IsNil(item.GoodsID) {
			return apperror.NewValidation("goods is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if id.IsNil(item.FromLocationID) || id.IsNil(item.ToLocationID) {
			return apperror.NewValidation("both locations are required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.FromLocationID == item.ToLocationID {
			return apperror.NewValidation("source and destination must differ").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// CanModify reports whether header and items may still be edited.
func (o *Order) CanModify() error {
	if o.Status != StatusPending {
		return apperror.NewBusinessRule("ORDER_LOCKED",
			"only pending moves can be modified").
			WithDetail("status", string(o.Status))
	}
	return nil
}

func (o *Order) transition(from, to Status) error {
	if o.Status != from {
		return apperror.NewInvalidTransition("move order", string(o.Status), string(to))
	}
	o.Status = to
	return nil
}

// MarkExecuting moves Pending -> Executing. The service posts both legs here.
func (o *Order) MarkExecuting() error {
	return o.transition(StatusPending, StatusExecuting)
}

// MarkCompleted moves Executing -> Completed. No stock effect.
func (o *Order) MarkCompleted() error {
	return o.transition(StatusExecuting, StatusCompleted)
}

// MarkCancelled is only allowed before execution: once legs have posted,
// the move is reversed by a counter-move, not a cancel.
func (o *Order) MarkCancelled() error {
	return o.transition(StatusPending, StatusCancelled)
}

var _ entity.Validatable = (*Order)(nil)
