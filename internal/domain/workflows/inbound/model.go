// Package inbound provides the inbound (goods receipt) order workflow.
package inbound

import (
	"context"
	"time"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// Status is the inbound order lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusAudited   Status = "AUDITED"
	StatusReceiving Status = "RECEIVING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Order is an inbound receipt: goods arriving from a supplier into a
// warehouse. Stock posts only at completion, and only the qualified part.
type Order struct {
	entity.OrderHeader

	// SupplierID references the supplying partner (master data)
	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	// SupplierDocNumber is the supplier's own document reference
	SupplierDocNumber string `db:"supplier_doc_number" json:"supplierDocNumber,omitempty"`

	Status Status `db:"status" json:"status"`

	// Table part: expected goods
	Items []Item `db:"-" json:"items"`
}

// Item is one expected goods line on an inbound order.
type Item struct {
	// Line identification
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	// Stock placement
	GoodsID    id.ID  `db:"goods_id" json:"goodsId"`
	LocationID id.ID  `db:"location_id" json:"locationId"`
	BatchNo    string `db:"batch_no" json:"batchNo"`

	// ExpireDate of the batch, stamped onto the stock record at completion
	ExpireDate *time.Time `db:"expire_date" json:"expireDate,omitempty"`

	// Quantities. ReceivedQuantity accrues during receiving; the
	// qualified/unqualified split decides what posts to stock.
	PlanQuantity        types.Quantity `db:"plan_quantity" json:"planQuantity"`
	ReceivedQuantity    types.Quantity `db:"received_quantity" json:"receivedQuantity"`
	QualifiedQuantity   types.Quantity `db:"qualified_quantity" json:"qualifiedQuantity"`
	UnqualifiedQuantity types.Quantity `db:"unqualified_quantity" json:"unqualifiedQuantity"`

	// UnitPrice for line valuation (optional)
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
}

// StockKey returns the stock key this item posts to.
func (i *Item) StockKey(warehouseID id.ID) entity.StockKey {
	return entity.StockKey{
		WarehouseID: warehouseID,
		GoodsID:     i.GoodsID,
		LocationID:  i.LocationID,
		BatchNo:     i.BatchNo,
	}
}

// NewOrder creates a draft inbound order.
func NewOrder(warehouseID, supplierID id.ID, operator string) *Order {
	return &Order{
		OrderHeader: entity.NewOrderHeader(warehouseID, operator),
		SupplierID:  supplierID,
		Status:      StatusDraft,
		Items:       make([]Item, 0),
	}
}

// AddItem appends an expected goods line.
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

	if id.IsNil(o.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
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

// transition validates and applies a status change.
func (o *Order) transition(from, to Status) error {
	if o.Status != from {
		return apperror.NewInvalidTransition("inbound order", string(o.Status), string(to))
	}
	o.Status = to
	return nil
}

// MarkAudited moves Draft -> Audited. No stock effect.
func (o *Order) MarkAudited() error {
	return o.transition(StatusDraft, StatusAudited)
}

// StartReceiving moves Audited -> Receiving.
func (o *Order) StartReceiving() error {
	return o.transition(StatusAudited, StatusReceiving)
}

// MarkCompleted moves Receiving -> Completed.
func (o *Order) MarkCompleted() error {
	return o.transition(StatusReceiving, StatusCompleted)
}

// MarkCancelled moves any non-terminal status to Cancelled.
func (o *Order) MarkCancelled() error {
	if o.Status.IsTerminal() {
		return apperror.NewInvalidTransition("inbound order", string(o.Status), string(StatusCancelled))
	}
	o.Status = StatusCancelled
	return nil
}

var _ entity.Validatable = (*Order)(nil)
