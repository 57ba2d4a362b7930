// Package stocktaking provides the stock taking (cycle count) workflow.
//
// A plan defines the counting scope. Starting it snapshots book quantities
// into line items; each line is counted, reviewed and adjusted on its own,
// and the plan completes when every line is adjusted or excluded.
package stocktaking

import (
	"context"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// PlanStatus is the taking plan lifecycle state.
type PlanStatus string

const (
	PlanDraft      PlanStatus = "DRAFT"
	PlanInProgress PlanStatus = "IN_PROGRESS"
	PlanCompleted  PlanStatus = "COMPLETED"
	PlanCancelled  PlanStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s PlanStatus) IsTerminal() bool {
	return s == PlanCompleted || s == PlanCancelled
}

// LineStatus is the per-line counting state.
type LineStatus string

const (
	LinePending  LineStatus = "PENDING"
	LineCounted  LineStatus = "COUNTED"
	LineReviewed LineStatus = "REVIEWED"
	LineAdjusted LineStatus = "ADJUSTED"
	LineExcluded LineStatus = "EXCLUDED"
)

// IsSettled reports whether the line needs no further work.
func (s LineStatus) IsSettled() bool {
	return s == LineAdjusted || s == LineExcluded
}

// Plan is a stock taking plan. Scope narrows which stock records get
// counted: warehouse always, location and goods optionally.
type Plan struct {
	entity.OrderHeader

	// Optional scope narrowing
	LocationID *id.ID `db:"location_id" json:"locationId,omitempty"`
	GoodsID    *id.ID `db:"goods_id" json:"goodsId,omitempty"`

	Status PlanStatus `db:"status" json:"status"`

	// Aggregates maintained as lines settle
	CompletedCount int `db:"completed_count" json:"completedCount"`
	DiffCount      int `db:"diff_count" json:"diffCount"`

	// Table part: generated at plan start
	Lines []Line `db:"-" json:"lines"`
}

// Line is one counted stock key. BookQuantity is snapshotted from the
// stock record when the plan starts; the adjustment posts the difference
// between the counted actual and that book value.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	GoodsID    id.ID  `db:"goods_id" json:"goodsId"`
	LocationID id.ID  `db:"location_id" json:"locationId"`
	BatchNo    string `db:"batch_no" json:"batchNo"`

	BookQuantity   types.Quantity `db:"book_quantity" json:"bookQuantity"`
	ActualQuantity types.Quantity `db:"actual_quantity" json:"actualQuantity"`

	Status LineStatus `db:"status" json:"status"`
}

// StockKey returns the stock key this line counts.
func (l *Line) StockKey(warehouseID id.ID) entity.StockKey {
	return entity.StockKey{
		WarehouseID: warehouseID,
		GoodsID:     l.GoodsID,
		LocationID:  l.LocationID,
		BatchNo:     l.BatchNo,
	}
}

// Diff returns actual minus book.
func (l *Line) Diff() types.Quantity {
	return l.ActualQuantity - l.BookQuantity
}

// NewPlan creates a draft taking plan.
func NewPlan(warehouseID id.ID, operator string) *Plan {
	return &Plan{
		OrderHeader: entity.NewOrderHeader(warehouseID, operator),
		Status:      PlanDraft,
		Lines:       make([]Line, 0),
	}
}

// Validate implements entity.Validatable.
func (p *Plan) Validate(ctx context.Context) error {
	return p.OrderHeader.Validate(ctx)
}

// CanModify reports whether the plan scope may still be edited.
func (p *Plan) CanModify() error {
	if p.Status != PlanDraft {
		return apperror.NewBusinessRule("PLAN_LOCKED",
			"only draft plans can be modified").
			WithDetail("status", string(p.Status))
	}
	return nil
}

// MarkInProgress moves Draft -> InProgress. The service generates lines here.
func (p *Plan) MarkInProgress() error {
	if p.Status != PlanDraft {
		return apperror.NewInvalidTransition("taking plan", string(p.Status), string(PlanInProgress))
	}
	p.Status = PlanInProgress
	return nil
}

// MarkCancelled moves any non-terminal status to Cancelled. Lines already
// adjusted keep their posted adjustments.
func (p *Plan) MarkCancelled() error {
	if p.Status.IsTerminal() {
		return apperror.NewInvalidTransition("taking plan", string(p.Status), string(PlanCancelled))
	}
	p.Status = PlanCancelled
	return nil
}

// RefreshAggregates recomputes completed/diff counts and completes the
// plan when every line is settled.
func (p *Plan) RefreshAggregates() {
	completed, diff := 0, 0
	allSettled := len(p.Lines) > 0
	for i := range p.Lines {
		line := &p.Lines[i]
		if line.Status.IsSettled() {
			completed++
			if line.Status == LineAdjusted && !line.Diff().IsZero() {
				diff++
			}
		} else {
			allSettled = false
		}
	}

	p.CompletedCount = completed
	p.DiffCount = diff
	if allSettled && p.Status == PlanInProgress {
		p.Status = PlanCompleted
	}
}

// FindLine returns the line with the given id, or nil.
func (p *Plan) FindLine(lineID id.ID) *Line {
	for i := range p.Lines {
		if p.Lines[i].LineID == lineID {
			return &p.Lines[i]
		}
	}
	return nil
}

func (l *Line) transition(from, to LineStatus) error {
	if l.Status != from {
		return apperror.NewInvalidTransition("taking line", string(l.Status), string(to))
	}
	l.Status = to
	return nil
}

// MarkCounted records the counted quantity. Pending -> Counted.
func (l *Line) MarkCounted(actual types.Quantity) error {
	if actual.IsNegative() {
		return apperror.NewValidation("actual quantity must not be negative")
	}
	if err := l.transition(LinePending, LineCounted); err != nil {
		return err
	}
	l.ActualQuantity = actual
	return nil
}

// MarkReviewed confirms the count. Counted -> Reviewed.
func (l *Line) MarkReviewed() error {
	return l.transition(LineCounted, LineReviewed)
}

// MarkAdjusted finalizes the line after its difference posted.
func (l *Line) MarkAdjusted() error {
	return l.transition(LineReviewed, LineAdjusted)
}

// MarkExcluded drops the line from counting. Allowed until reviewed.
func (l *Line) MarkExcluded() error {
	if l.Status != LinePending && l.Status != LineCounted && l.Status != LineReviewed {
		return apperror.NewInvalidTransition("taking line", string(l.Status), string(LineExcluded))
	}
	l.Status = LineExcluded
	return nil
}

var _ entity.Validatable = (*Plan)(nil)
