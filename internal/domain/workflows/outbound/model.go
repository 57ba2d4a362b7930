// Package outbound provides the outbound (goods issue) order workflow.
package outbound

import (
	"context"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// Status is the outbound order lifecycle state.
type Status string

const (
	StatusDraft            Status = "DRAFT"
	StatusAudited          Status = "AUDITED"
	StatusPicking          Status = "PICKING"
	StatusAwaitingShipment Status = "AWAITING_SHIPMENT"
	StatusCompleted        Status = "COMPLETED"
	StatusCancelled        Status = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Order is an outbound issue: goods leaving a warehouse to a customer.
// Entering picking reserves stock; completion consumes the reservations.
type Order struct {
	entity.OrderHeader

	// CustomerID references the receiving partner (master data)
	CustomerID id.ID `db:"customer_id" json:"customerId"`

	Status Status `db:"status" json:"status"`

	// WaveID is set while the order belongs to an active picking wave.
	// At most one active wave may hold an order at a time.
	WaveID *id.ID `db:"wave_id" json:"waveId,omitempty"`

	// Table part: goods to issue
	Items []Item `db:"-" json:"items"`
}

// Item is one goods line on an outbound order.
type Item struct {
	// Line identification
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	// Stock source
	GoodsID    id.ID  `db:"goods_id" json:"goodsId"`
	LocationID id.ID  `db:"location_id" json:"locationId"`
	BatchNo    string `db:"batch_no" json:"batchNo"`

	// Quantities. ReservedQuantity tracks the outstanding reservation this
	// order holds for the item; it is zeroed when released or consumed, so
	// a retried cancel releases nothing more.
	PlanQuantity     types.Quantity `db:"plan_quantity" json:"planQuantity"`
	ReservedQuantity types.Quantity `db:"reserved_quantity" json:"reservedQuantity"`
	PickedQuantity   types.Quantity `db:"picked_quantity" json:"pickedQuantity"`
	ShippedQuantity  types.Quantity `db:"shipped_quantity" json:"shippedQuantity"`
}

// StockKey returns the stock key this item draws from.
func (i *Item) StockKey(warehouseID id.ID) entity.StockKey {
	return entity.StockKey{
		WarehouseID: warehouseID,
		GoodsID:     i.GoodsID,
		LocationID:  i.LocationID,
		BatchNo:     i.BatchNo,
	}
}

// NewOrder creates a draft outbound order.
func NewOrder(warehouseID, customerID id.ID, operator string) *Order {
	return &Order{
		OrderHeader: entity.NewOrderHeader(warehouseID, operator),
		CustomerID:  customerID,
		Status:      StatusDraft,
		Items:       make([]Item, 0),
	}
}

// AddItem appends a goods line.
func (o *Order) AddItem(goodsID, locationID id.ID, batchNo string, planQty types.Quantity) *Item {
	item := Item{
		LineID:       id.New(),
		LineNo:       len(o.Items) + 1,
		GoodsID:      goodsID,
		LocationID:   locationID,
		BatchNo:      batchNo,
		PlanQuantity: planQty,
	}
	o.Items = append(o.Items, item)
	return &o.Items[len(o.Items)-1]
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.OrderHeader.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
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
		if id.IsNil(item.LocationID) {
			return apperror.NewValidation("location is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if !item.PlanQuantity.IsPositive() {
			return apperror.NewValidation("plan quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// CanModify reports whether header and items may still be edited.
func (o *Order) CanModify() error {
	if o.Status != StatusDraft {
		return apperror.NewBusinessRule("ORDER_LOCKED",
			"only draft orders can be modified").
			WithDetail("status", string(o.Status))
	}
	return nil
}

func (o *Order) transition(from, to Status) error {
	if o.Status != from {
		return apperror.NewInvalidTransition("outbound order", string(o.Status), string(to))
	}
	o.Status = to
	return nil
}

// MarkAudited moves Draft -> Audited. No stock effect.
func (o *Order) MarkAudited() error {
	return o.transition(StatusDraft, StatusAudited)
}

// MarkPicking moves Audited -> Picking. The service reserves stock here.
func (o *Order) MarkPicking() error {
	return o.transition(StatusAudited, StatusPicking)
}

// MarkAwaitingShipment moves Picking -> AwaitingShipment.
func (o *Order) MarkAwaitingShipment() error {
	return o.transition(StatusPicking, StatusAwaitingShipment)
}

// MarkCompleted moves AwaitingShipment -> Completed.
func (o *Order) MarkCompleted() error {
	return o.transition(StatusAwaitingShipment, StatusCompleted)
}

// MarkCancelled moves any non-terminal status to Cancelled.
func (o *Order) MarkCancelled() error {
	if o.Status.IsTerminal() {
		return apperror.NewInvalidTransition("outbound order", string(o.Status), string(StatusCancelled))
	}
	o.Status = StatusCancelled
	return nil
}

var _ entity.Validatable = (*Order)(nil)
