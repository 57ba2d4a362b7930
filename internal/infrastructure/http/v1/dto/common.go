// Package dto provides Data Transfer Objects for API requests.
// Responses serialize the domain entities directly: their json tags are
// the wire format, so a parallel response type set would only drift.
package dto

import (
	"time"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
)

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Stock Key ---

// StockKeyQuery identifies one stock record in query parameters.
type StockKeyQuery struct {
	WarehouseID string `form:"warehouseId" binding:"required"`
	GoodsID     string `form:"goodsId" binding:"required"`
	LocationID  string `form:"locationId" binding:"required"`
	BatchNo     string `form:"batchNo"`
}

// ToKey parses the query into a stock key.
func (q *StockKeyQuery) ToKey() (entity.StockKey, error) {
	warehouseID, err := id.Parse(q.WarehouseID)
	if err != nil {
		return entity.StockKey{}, apperror.NewValidation("invalid warehouseId")
	}
	goodsID, err := id.Parse(q.GoodsID)
	if err != nil {
		return entity.StockKey{}, apperror.NewValidation("invalid goodsId")
	}
	locationID, err := id.Parse(q.LocationID)
	if err != nil {
		return entity.StockKey{}, apperror.NewValidation("invalid locationId")
	}
	return entity.StockKey{
		WarehouseID: warehouseID,
		GoodsID:     goodsID,
		LocationID:  locationID,
		BatchNo:     q.BatchNo,
	}, nil
}

// --- Parsing helpers shared by request DTOs ---

// ParseID parses a required ID field.
func ParseID(value, field string) (id.ID, error) {
	parsed, err := id.Parse(value)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid id").WithDetail("field", field)
	}
	return parsed, nil
}

// ParseOptionalTime parses an RFC3339 timestamp, nil when empty.
func ParseOptionalTime(value, field string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, apperror.NewValidation("invalid timestamp").WithDetail("field", field)
	}
	return &parsed, nil
}
