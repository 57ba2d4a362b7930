// Package picking provides the picking wave workflow: batching outbound
// orders into location-ordered pick tasks.
//
// A wave aggregates outbound orders that are in picking. Releasing the
// wave generates one task per distinct (location, goods, batch) across all
// member orders; completing a task distributes the picked quantity back to
// the member orders' items through recorded allocations.
package picking

import (
	"context"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// WaveStatus is the wave lifecycle state.
type WaveStatus string

const (
	WaveDraft     WaveStatus = "DRAFT"
	WaveReleased  WaveStatus = "RELEASED"
	WaveCompleted WaveStatus = "COMPLETED"
	WaveCancelled WaveStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s WaveStatus) IsTerminal() bool {
	return s == WaveCompleted || s == WaveCancelled
}

// IsActive reports whether the wave still holds its member orders.
func (s WaveStatus) IsActive() bool {
	return !s.IsTerminal()
}

// TaskStatus is the per-task state.
type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskCompleted TaskStatus = "COMPLETED"
	TaskCancelled TaskStatus = "CANCELLED"
)

// IsSettled reports whether the task needs no further work.
func (s TaskStatus) IsSettled() bool {
	return s == TaskCompleted || s == TaskCancelled
}

// Wave groups outbound orders picked together.
type Wave struct {
	entity.OrderHeader

	Status WaveStatus `db:"status" json:"status"`

	// OrderIDs are the member outbound orders. Membership is exclusive
	// while the wave is active.
	OrderIDs []id.ID `db:"-" json:"orderIds"`

	// Tasks are generated at release
	Tasks []Task `db:"-" json:"tasks"`
}

// Task is one pick assignment: everything the wave needs from one
// (location, goods, batch), summed across member orders.
type Task struct {
	TaskID id.ID `db:"task_id" json:"taskId"`
	TaskNo int   `db:"task_no" json:"taskNo"`

	GoodsID    id.ID  `db:"goods_id" json:"goodsId"`
	LocationID id.ID  `db:"location_id" json:"locationId"`
	BatchNo    string `db:"batch_no" json:"batchNo"`

	RequiredQuantity types.Quantity `db:"required_quantity" json:"requiredQuantity"`
	PickedQuantity   types.Quantity `db:"picked_quantity" json:"pickedQuantity"`

	Status TaskStatus `db:"status" json:"status"`

	// Allocations map the task's quantity back to the member orders'
	// items, in generation order. Task completion walks them to feed
	// picked quantity back per item.
	Allocations []Allocation `db:"-" json:"allocations"`
}

// Allocation is one order item's share of a task.
type Allocation struct {
	OutboundID id.ID          `db:"outbound_id" json:"outboundId"`
	ItemLineID id.ID          `db:"item_line_id" json:"itemLineId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
}

// NewWave creates a draft wave.
func NewWave(warehouseID id.ID, operator string) *Wave {
	return &Wave{
		OrderHeader: entity.NewOrderHeader(warehouseID, operator),
		Status:      WaveDraft,
		OrderIDs:    make([]id.ID, 0),
		Tasks:       make([]Task, 0),
	}
}

// Validate implements entity.Validatable.
func (w *Wave) Validate(ctx context.Context) error {
	return w.OrderHeader.Validate(ctx)
}

// HasOrder reports wave membership.
func (w *Wave) HasOrder(orderID id.ID) bool {
	for _, oid := range w.OrderIDs {
		if oid == orderID {
			return true
		}
	}
	return false
}

// FindTask returns the task with the given id, or nil.
func (w *Wave) FindTask(taskID id.ID) *Task {
	for i := range w.Tasks {
		if w.Tasks[i].TaskID == taskID {
			return &w.Tasks[i]
		}
	}
	return nil
}

// MarkReleased moves Draft -> Released. The service generates tasks here.
func (w *Wave) MarkReleased() error {
	if w.Status != WaveDraft {
		return apperror.NewInvalidTransition("picking wave", string(w.Status), string(WaveReleased))
	}
	w.Status = WaveReleased
	return nil
}

// MarkCancelled moves any non-terminal status to Cancelled.
func (w *Wave) MarkCancelled() error {
	if w.Status.IsTerminal() {
		return apperror.NewInvalidTransition("picking wave", string(w.Status), string(WaveCancelled))
	}
	w.Status = WaveCancelled
	return nil
}

// RefreshStatus completes the wave once every task is settled.
func (w *Wave) RefreshStatus() {
	if w.Status != WaveReleased || len(w.Tasks) == 0 {
		return
	}
	for i := range w.Tasks {
		if !w.Tasks[i].Status.IsSettled() {
			return
		}
	}
	w.Status = WaveCompleted
}

func (t *Task) transition(from, to TaskStatus) error {
	if t.Status != from {
		return apperror.NewInvalidTransition("picking task", string(t.Status), string(to))
	}
	t.Status = to
	return nil
}

// MarkCompleted settles the task with the picked quantity.
func (t *Task) MarkCompleted(picked types.Quantity) error {
	if picked.IsNegative() {
		return apperror.NewValidation("picked quantity must not be negative")
	}
	if picked > t.RequiredQuantity {
		return apperror.NewValidation("picked quantity exceeds required").
			WithDetail("required", t.RequiredQuantity.String()).
			WithDetail("picked", picked.String())
	}
	if err := t.transition(TaskPending, TaskCompleted); err != nil {
		return err
	}
	t.PickedQuantity = picked
	return nil
}

// MarkCancelled settles the task without picking.
func (t *Task) MarkCancelled() error {
	return t.transition(TaskPending, TaskCancelled)
}

var _ entity.Validatable = (*Wave)(nil)
