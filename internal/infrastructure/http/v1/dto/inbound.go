package dto

import (
	"kardex/internal/core/types"
	"kardex/internal/domain/workflows/inbound"
)

// CreateInboundRequest creates a draft inbound order.
type CreateInboundRequest struct {
	WarehouseID       string               `json:"warehouseId" binding:"required"`
	SupplierID        string               `json:"supplierId" binding:"required"`
	SupplierDocNumber string               `json:"supplierDocNumber"`
	Remark            string               `json:"remark"`
	Items             []InboundItemRequest `json:"items" binding:"required,min=1,dive"`
}

// InboundItemRequest is one expected goods line.
type InboundItemRequest struct {
	GoodsID      string         `json:"goodsId" binding:"required"`
	LocationID   string         `json:"locationId" binding:"required"`
	BatchNo      string         `json:"batchNo"`
	ExpireDate   string         `json:"expireDate"`
	PlanQuantity types.Quantity `json:"planQuantity" binding:"required"`
	UnitPrice    types.Money    `json:"unitPrice"`
}

// ToEntity builds the domain order.
func (r *CreateInboundRequest) ToEntity(operator string) (*inbound.Order, error) {
	warehouseID, err := ParseID(r.WarehouseID, "warehouseId")
	if err != nil {
		return nil, err
	}
	supplierID, err := ParseID(r.SupplierID, "supplierId")
	if err != nil {
		return nil, err
	}

	order := inbound.NewOrder(warehouseID, supplierID, operator)
	order.SupplierDocNumber = r.SupplierDocNumber
	order.Remark = r.Remark

	for i := range r.Items {
		req := &r.Items[i]
		goodsID, err := ParseID(req.GoodsID, "items.goodsId")
		if err != nil {
			return nil, err
		}
		locationID, err := ParseID(req.LocationID, "items.locationId")
		if err != nil {
			return nil, err
		}
		expire, err := ParseOptionalTime(req.ExpireDate, "items.expireDate")
		if err != nil {
			return nil, err
		}

		item := order.AddItem(goodsID, locationID, req.BatchNo, req.PlanQuantity)
		item.ExpireDate = expire
		item.UnitPrice = req.UnitPrice
	}

	return order, nil
}

// UpdateInboundRequest edits a draft inbound order. Items, when present,
// replace the whole table part.
type UpdateInboundRequest struct {
	SupplierDocNumber *string              `json:"supplierDocNumber"`
	Remark            *string              `json:"remark"`
	Items             []InboundItemRequest `json:"items" binding:"omitempty,min=1,dive"`
}

// ApplyTo mutates the loaded order.
func (r *UpdateInboundRequest) ApplyTo(order *inbound.Order) error {
	if r.SupplierDocNumber != nil {
		order.SupplierDocNumber = *r.SupplierDocNumber
	}
	if r.Remark != nil {
		order.Remark = *r.Remark
	}
	if r.Items != nil {
		order.Items = order.Items[:0]
		for i := range r.Items {
			req := &r.Items[i]
			goodsID, err := ParseID(req.GoodsID, "items.goodsId")
			if err != nil {
				return err
			}
			locationID, err := ParseID(req.LocationID, "items.locationId")
			if err != nil {
				return err
			}
			expire, err := ParseOptionalTime(req.ExpireDate, "items.expireDate")
			if err != nil {
				return err
			}

			item := order.AddItem(goodsID, locationID, req.BatchNo, req.PlanQuantity)
			item.ExpireDate = expire
			item.UnitPrice = req.UnitPrice
		}
	}
	return nil
}

// RecordReceiptRequest records received quantities per line.
type RecordReceiptRequest struct {
	Receipts []ReceiptLineRequest `json:"receipts" binding:"required,min=1,dive"`
}

// ReceiptLineRequest is one line's receipt state. Quantities are
// absolute, so a corrected scan can simply be re-sent.
type ReceiptLineRequest struct {
	LineID              string         `json:"lineId" binding:"required"`
	ReceivedQuantity    types.Quantity `json:"receivedQuantity"`
	QualifiedQuantity   types.Quantity `json:"qualifiedQuantity"`
	UnqualifiedQuantity types.Quantity `json:"unqualifiedQuantity"`
	ExpireDate          string         `json:"expireDate"`
}

// ToReceipts converts request lines.
func (r *RecordReceiptRequest) ToReceipts() ([]inbound.Receipt, error) {
	receipts := make([]inbound.Receipt, 0, len(r.Receipts))
	for i := range r.Receipts {
		req := &r.Receipts[i]
		lineID, err := ParseID(req.LineID, "receipts.lineId")
		if err != nil {
			return nil, err
		}
		expire, err := ParseOptionalTime(req.ExpireDate, "receipts.expireDate")
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, inbound.Receipt{
			LineID:              lineID,
			ReceivedQuantity:    req.ReceivedQuantity,
			QualifiedQuantity:   req.QualifiedQuantity,
			UnqualifiedQuantity: req.UnqualifiedQuantity,
			ExpireDate:          expire,
		})
	}
	return receipts, nil
}
