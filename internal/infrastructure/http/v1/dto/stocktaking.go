package dto

import (
	"kardex/internal/core/types"
	"kardex/internal/domain/workflows/stocktaking"
)

// CreateTakingRequest creates a draft stocktaking plan. LocationID and
// GoodsID narrow the counting scope; empty means the whole warehouse.
type CreateTakingRequest struct {
	WarehouseID string `json:"warehouseId" binding:"required"`
	LocationID  string `json:"locationId"`
	GoodsID     string `json:"goodsId"`
	Remark      string `json:"remark"`
}

// ToEntity builds the domain plan.
func (r *CreateTakingRequest) ToEntity(operator string) (*stocktaking.Plan, error) {
	warehouseID, err := ParseID(r.WarehouseID, "warehouseId")
	if err != nil {
		return nil, err
	}

	plan := stocktaking.NewPlan(warehouseID, operator)
	plan.Remark = r.Remark

	if r.LocationID != "" {
		locationID, err := ParseID(r.LocationID, "locationId")
		if err != nil {
			return nil, err
		}
		plan.LocationID = &locationID
	}
	if r.GoodsID != "" {
		goodsID, err := ParseID(r.GoodsID, "goodsId")
		if err != nil {
			return nil, err
		}
		plan.GoodsID = &goodsID
	}

	return plan, nil
}

// UpdateTakingRequest edits a draft plan's scope.
type UpdateTakingRequest struct {
	LocationID *string `json:"locationId"`
	GoodsID    *string `json:"goodsId"`
	Remark     *string `json:"remark"`
}

// ApplyTo mutates the loaded plan. An explicit empty string clears the
// scope dimension.
func (r *UpdateTakingRequest) ApplyTo(plan *stocktaking.Plan) error {
	if r.Remark != nil {
		plan.Remark = *r.Remark
	}
	if r.LocationID != nil {
		if *r.LocationID == "" {
			plan.LocationID = nil
		} else {
			locationID, err := ParseID(*r.LocationID, "locationId")
			if err != nil {
				return err
			}
			plan.LocationID = &locationID
		}
	}
	if r.GoodsID != nil {
		if *r.GoodsID == "" {
			plan.GoodsID = nil
		} else {
			goodsID, err := ParseID(*r.GoodsID, "goodsId")
			if err != nil {
				return err
			}
			plan.GoodsID = &goodsID
		}
	}
	return nil
}

// CountRequest records an actual counted quantity on one line.
type CountRequest struct {
	ActualQuantity types.Quantity `json:"actualQuantity"`
}
