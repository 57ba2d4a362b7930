package dto

import (
	"kardex/internal/core/types"
	"kardex/internal/domain/workflows/outbound"
)

// CreateOutboundRequest creates a draft outbound order.
type CreateOutboundRequest struct {
	WarehouseID string                `json:"warehouseId" binding:"required"`
	CustomerID  string                `json:"customerId" binding:"required"`
	Remark      string                `json:"remark"`
	Items       []OutboundItemRequest `json:"items" binding:"required,min=1,dive"`
}

// OutboundItemRequest is one requested goods line.
type OutboundItemRequest struct {
	GoodsID      string         `json:"goodsId" binding:"required"`
	LocationID   string         `json:"locationId" binding:"required"`
	BatchNo      string         `json:"batchNo"`
	PlanQuantity types.Quantity `json:"planQuantity" binding:"required"`
}

// ToEntity builds the domain order.
func (r *CreateOutboundRequest) ToEntity(operator string) (*outbound.Order, error) {
	warehouseID, err := ParseID(r.WarehouseID, "warehouseId")
	if err != nil {
		return nil, err
	}
	customerID, err := ParseID(r.CustomerID, "customerId")
	if err != nil {
		return nil, err
	}

	order := outbound.NewOrder(warehouseID, customerID, operator)
	order.Remark = r.Remark

	if err := appendOutboundItems(order, r.Items); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOutboundRequest edits a draft outbound order. Items, when
// present, replace the whole table part.
type UpdateOutboundRequest struct {
	Remark *string               `json:"remark"`
	Items  []OutboundItemRequest `json:"items" binding:"omitempty,min=1,dive"`
}

// ApplyTo mutates the loaded order.
func (r *UpdateOutboundRequest) ApplyTo(order *outbound.Order) error {
	if r.Remark != nil {
		order.Remark = *r.Remark
	}
	if r.Items != nil {
		order.Items = order.Items[:0]
		if err := appendOutboundItems(order, r.Items); err != nil {
			return err
		}
	}
	return nil
}

func appendOutboundItems(order *outbound.Order, items []OutboundItemRequest) error {
	for i := range items {
		req := &items[i]
		goodsID, err := ParseID(req.GoodsID, "items.goodsId")
		if err != nil {
			return err
		}
		locationID, err := ParseID(req.LocationID, "items.locationId")
		if err != nil {
			return err
		}
		order.AddItem(goodsID, locationID, req.BatchNo, req.PlanQuantity)
	}
	return nil
}

// QuantityRequest carries a single line quantity, used for pick and
// shipment recording.
type QuantityRequest struct {
	Quantity types.Quantity `json:"quantity" binding:"required"`
}

// AttachWaveRequest attaches an order to a picking wave.
type AttachWaveRequest struct {
	WaveID string `json:"waveId" binding:"required"`
}
