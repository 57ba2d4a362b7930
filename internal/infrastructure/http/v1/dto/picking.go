package dto

import (
	"kardex/internal/core/types"
	"kardex/internal/domain/workflows/picking"
)

// CreateWaveRequest creates a draft picking wave, optionally seeded
// with outbound orders.
type CreateWaveRequest struct {
	WarehouseID string   `json:"warehouseId" binding:"required"`
	Remark      string   `json:"remark"`
	OrderIDs    []string `json:"orderIds"`
}

// ToEntity builds the domain wave. Seed orders are attached by the
// service afterwards so membership rules apply uniformly.
func (r *CreateWaveRequest) ToEntity(operator string) (*picking.Wave, error) {
	warehouseID, err := ParseID(r.WarehouseID, "warehouseId")
	if err != nil {
		return nil, err
	}

	wave := picking.NewWave(warehouseID, operator)
	wave.Remark = r.Remark
	return wave, nil
}

// AddOrderRequest adds one outbound order to a wave.
type AddOrderRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

// CompleteTaskRequest confirms a pick task with the quantity actually
// taken off the shelf.
type CompleteTaskRequest struct {
	PickedQuantity types.Quantity `json:"pickedQuantity" binding:"required"`
}
