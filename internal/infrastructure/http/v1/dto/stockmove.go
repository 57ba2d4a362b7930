package dto

import (
	"kardex/internal/core/types"
	"kardex/internal/domain/workflows/stockmove"
)

// CreateMoveRequest creates a draft move order.
type CreateMoveRequest struct {
	WarehouseID string            `json:"warehouseId" binding:"required"`
	Remark      string            `json:"remark"`
	Items       []MoveItemRequest `json:"items" binding:"required,min=1,dive"`
}

// MoveItemRequest relocates one goods batch between locations.
type MoveItemRequest struct {
	GoodsID        string         `json:"goodsId" binding:"required"`
	FromLocationID string         `json:"fromLocationId" binding:"required"`
	ToLocationID   string         `json:"toLocationId" binding:"required"`
	BatchNo        string         `json:"batchNo"`
	Quantity       types.Quantity `json:"quantity" binding:"required"`
}

// ToEntity builds the domain order.
func (r *CreateMoveRequest) ToEntity(operator string) (*stockmove.Order, error) {
	warehouseID, err := ParseID(r.WarehouseID, "warehouseId")
	if err != nil {
		return nil, err
	}

	order := stockmove.NewOrder(warehouseID, operator)
	order.Remark = r.Remark

	if err := appendMoveItems(order, r.Items); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateMoveRequest edits a draft move order.
type UpdateMoveRequest struct {
	Remark *string           `json:"remark"`
	Items  []MoveItemRequest `json:"items" binding:"omitempty,min=1,dive"`
}

// ApplyTo mutates the loaded order.
func (r *UpdateMoveRequest) ApplyTo(order *stockmove.Order) error {
	if r.Remark != nil {
		order.Remark = *r.Remark
	}
	if r.Items != nil {
		order.Items = order.Items[:0]
		if err := appendMoveItems(order, r.Items); err != nil {
			return err
		}
	}
	return nil
}

func appendMoveItems(order *stockmove.Order, items []MoveItemRequest) error {
	for i := range items {
		req := &items[i]
		goodsID, err := ParseID(req.GoodsID, "items.goodsId")
		if err != nil {
			return err
		}
		fromID, err := ParseID(req.FromLocationID, "items.fromLocationId")
		if err != nil {
			return err
		}
		toID, err := ParseID(req.ToLocationID, "items.toLocationId")
		if err != nil {
			return err
		}
		order.AddItem(goodsID, fromID, toID, req.BatchNo, req.Quantity)
	}
	return nil
}
