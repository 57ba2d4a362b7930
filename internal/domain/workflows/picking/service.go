package picking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kardex/internal/core/apperror"
	corecontext "kardex/internal/core/context"
	"kardex/internal/core/id"
	"kardex/internal/core/numerator"
	"kardex/internal/core/tx"
	"kardex/internal/core/types"
	"kardex/internal/domain"
	"kardex/internal/domain/audit"
	"kardex/internal/domain/workflows/outbound"
	"kardex/pkg/logger"
)

// EntityType tags transition trail entries for this workflow.
const EntityType = "picking_wave"

// Service provides business operations for picking waves. It never posts
// to stock itself: reservations and consumption belong to the member
// outbound orders; the wave only organizes the physical picking and feeds
// picked quantities back.
type Service struct {
	repo      Repository
	outbound  *outbound.Service
	numerator numerator.Generator
	txManager tx.Manager
	trail     audit.Trail
}

// NewService creates the picking wave service.
func NewService(
	repo Repository,
	outboundSvc *outbound.Service,
	numerator numerator.Generator,
	txManager tx.Manager,
	trail audit.Trail,
) *Service {
	if trail == nil {
		trail = audit.NopTrail{}
	}
	return &Service{
		repo:      repo,
		outbound:  outboundSvc,
		numerator: numerator,
		txManager: txManager,
		trail:     trail,
	}
}

// Create creates a new draft wave.
func (s *Service) Create(ctx context.Context, wave *Wave) error {
	if err := wave.Validate(ctx); err != nil {
		return err
	}

	if wave.Number == "" {
		cfg := numerator.DefaultConfig(NumberPrefix)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		wave.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, wave); err != nil {
			return fmt.Errorf("create wave: %w", err)
		}
		return s.repo.SaveOrderIDs(ctx, wave.ID, wave.OrderIDs)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "picking wave created",
		"id", wave.ID,
		"number", wave.Number)
	return nil
}

// GetByID retrieves a wave with membership and tasks.
func (s *Service) GetByID(ctx context.Context, waveID id.ID) (*Wave, error) {
	wave, err := s.repo.GetByID(ctx, waveID)
	if err != nil {
		return nil, err
	}
	return s.loadParts(ctx, wave)
}

// List retrieves waves with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Wave], error) {
	return s.repo.List(ctx, filter)
}

// Delete removes a draft or cancelled wave.
func (s *Service) Delete(ctx context.Context, waveID id.ID) error {
	wave, err := s.repo.GetByID(ctx, waveID)
	if err != nil {
		return err
	}
	if wave.Status != WaveDraft && wave.Status != WaveCancelled {
		return apperror.NewBusinessRule("WAVE_LOCKED",
			"only draft or cancelled waves can be deleted").
			WithDetail("status", string(wave.Status))
	}
	return s.repo.Delete(ctx, waveID)
}

// AddOrder attaches an outbound order to a draft wave. The order must be
// in picking and not belong to another active wave; attaching claims the
// exclusive membership on the order itself.
func (s *Service) AddOrder(ctx context.Context, waveID, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		wave, err := s.getForUpdate(ctx, waveID)
		if err != nil {
			return err
		}
		if wave.Status != WaveDraft {
			return apperror.NewInvalidTransition(EntityType, string(wave.Status), string(WaveDraft)).
				WithDetail("reason", "orders can only join a draft wave")
		}
		if wave.HasOrder(orderID) {
			return nil
		}

		if err := s.outbound.AttachToWave(ctx, orderID, wave.ID); err != nil {
			return err
		}

		wave.OrderIDs = append(wave.OrderIDs, orderID)
		wave.Touch(corecontext.OperatorOrSystem(ctx))
		if err := s.repo.Update(ctx, wave); err != nil {
			return fmt.Errorf("update wave: %w", err)
		}
		return s.repo.SaveOrderIDs(ctx, wave.ID, wave.OrderIDs)
	})
}

// RemoveOrder detaches an order from a draft wave.
func (s *Service) RemoveOrder(ctx context.Context, waveID, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		wave, err := s.getForUpdate(ctx, waveID)
		if err != nil {
			return err
		}
		if wave.Status != WaveDraft {
			return apperror.NewInvalidTransition(EntityType, string(wave.Status), string(WaveDraft)).
				WithDetail("reason", "orders can only leave a draft wave")
		}
		if !wave.HasOrder(orderID) {
			return nil
		}

		if err := s.outbound.DetachFromWave(ctx, orderID); err != nil {
			return err
		}

		kept := wave.OrderIDs[:0]
		for _, oid := range wave.OrderIDs {
			if oid != orderID {
				kept = append(kept, oid)
			}
		}
		wave.OrderIDs = kept

		wave.Touch(corecontext.OperatorOrSystem(ctx))
		if err := s.repo.Update(ctx, wave); err != nil {
			return fmt.Errorf("update wave: %w", err)
		}
		return s.repo.SaveOrderIDs(ctx, wave.ID, wave.OrderIDs)
	})
}

// Release generates tasks and opens the wave for picking. One task per
// distinct (location, goods, batch) across all member orders, required
// quantity summed, with allocations recording each item's share.
func (s *Service) Release(ctx context.Context, waveID id.ID) error {
	operator := corecontext.OperatorOrSystem(ctx)

	var generated int
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		wave, err := s.getForUpdate(ctx, waveID)
		if err != nil {
			return err
		}

		from := wave.Status
		if err := wave.MarkReleased(); err != nil {
			return err
		}
		if len(wave.OrderIDs) == 0 {
			return apperror.NewBusinessRule("EMPTY_WAVE",
				"a wave needs at least one member order to release")
		}

		tasks, err := s.generateTasks(ctx, wave)
		if err != nil {
			return err
		}
		wave.Tasks = tasks
		generated = len(tasks)

		wave.Touch(operator)
		if err := s.repo.Update(ctx, wave); err != nil {
			return fmt.Errorf("update wave: %w", err)
		}
		if err := s.repo.SaveTasks(ctx, wave.ID, wave.Tasks); err != nil {
			return err
		}
		return s.recordTransition(ctx, wave, from)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "picking wave released",
		"id", waveID,
		"tasks", generated)
	return nil
}

// CompleteTask settles one task with the quantity actually picked and
// distributes it across the task's allocations, feeding each member
// order's item pickedQuantity. Short picks shorten the tail allocations.
// The wave completes automatically when its last task settles.
func (s *Service) CompleteTask(ctx context.Context, waveID, taskID id.ID, picked types.Quantity) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		wave, err := s.getForUpdate(ctx, waveID)
		if err != nil {
			return err
		}
		if wave.Status != WaveReleased {
			return apperror.NewInvalidTransition(EntityType, string(wave.Status), string(WaveReleased)).
				WithDetail("reason", "tasks can only complete on a released wave")
		}

		task := wave.FindTask(taskID)
		if task == nil {
			return apperror.NewNotFound("picking task", taskID)
		}
		if err := task.MarkCompleted(picked); err != nil {
			return err
		}

		remaining := picked
		for _, alloc := range task.Allocations {
			if !remaining.IsPositive() {
				break
			}
			share := alloc.Quantity
			if remaining < share {
				share = remaining
			}
			if err := s.outbound.RecordPick(ctx, alloc.OutboundID, alloc.ItemLineID, share); err != nil {
				return err
			}
			remaining -= share
		}

		return s.settle(ctx, wave)
	})
}

// CancelTask settles one task without picking anything.
func (s *Service) CancelTask(ctx context.Context, waveID, taskID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		wave, err := s.getForUpdate(ctx, waveID)
		if err != nil {
			return err
		}
		if wave.Status != WaveReleased {
			return apperror.NewInvalidTransition(EntityType, string(wave.Status), string(WaveReleased)).
				WithDetail("reason", "tasks can only cancel on a released wave")
		}

		task := wave.FindTask(taskID)
		if task == nil {
			return apperror.NewNotFound("picking task", taskID)
		}
		if err := task.MarkCancelled(); err != nil {
			return err
		}

		return s.settle(ctx, wave)
	})
}

// Cancel aborts a wave: cancels pending tasks and releases membership so
// the orders can join another wave. Safe to retry.
func (s *Service) Cancel(ctx context.Context, waveID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		wave, err := s.getForUpdate(ctx, waveID)
		if err != nil {
			return err
		}

		from := wave.Status
		if err := wave.MarkCancelled(); err != nil {
			return err
		}

		for i := range wave.Tasks {
			if wave.Tasks[i].Status == TaskPending {
				wave.Tasks[i].Status = TaskCancelled
			}
		}
		if err := s.detachAll(ctx, wave); err != nil {
			return err
		}

		wave.Touch(corecontext.OperatorOrSystem(ctx))
		if err := s.repo.Update(ctx, wave); err != nil {
			return fmt.Errorf("update wave: %w", err)
		}
		if err := s.repo.SaveTasks(ctx, wave.ID, wave.Tasks); err != nil {
			return err
		}
		return s.recordTransition(ctx, wave, from)
	})
}

// generateTasks builds the task list from the member orders' open items.
func (s *Service) generateTasks(ctx context.Context, wave *Wave) ([]Task, error) {
	type taskKey struct {
		location id.ID
		goods    id.ID
		batch    string
	}

	index := make(map[taskKey]int)
	tasks := make([]Task, 0)

	for _, orderID := range wave.OrderIDs {
		order, err := s.outbound.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if order.Status != outbound.StatusPicking {
			return nil, apperror.NewBusinessRule("ORDER_NOT_PICKING",
				"member order is not in picking").
				WithDetail("orderId", orderID).
				WithDetail("status", string(order.Status))
		}

		for i := range order.Items {
			item := &order.Items[i]
			open := item.PlanQuantity - item.PickedQuantity
			if !open.IsPositive() {
				continue
			}

			k := taskKey{location: item.LocationID, goods: item.GoodsID, batch: item.BatchNo}
			idx, ok := index[k]
			if !ok {
				idx = len(tasks)
				index[k] = idx
				tasks = append(tasks, Task{
					TaskID:     id.New(),
					TaskNo:     idx + 1,
					GoodsID:    item.GoodsID,
					LocationID: item.LocationID,
					BatchNo:    item.BatchNo,
					Status:     TaskPending,
				})
			}

			tasks[idx].RequiredQuantity += open
			tasks[idx].Allocations = append(tasks[idx].Allocations, Allocation{
				OutboundID: orderID,
				ItemLineID: item.LineID,
				Quantity:   open,
			})
		}
	}

	if len(tasks) == 0 {
		return nil, apperror.NewBusinessRule("NOTHING_TO_PICK",
			"member orders have no open quantity")
	}
	return tasks, nil
}

// settle persists task state, refreshes the wave status, and releases
// membership once the wave reaches a terminal state.
func (s *Service) settle(ctx context.Context, wave *Wave) error {
	from := wave.Status
	wave.RefreshStatus()

	if wave.Status.IsTerminal() {
		if err := s.detachAll(ctx, wave); err != nil {
			return err
		}
	}

	wave.Touch(corecontext.OperatorOrSystem(ctx))
	if err := s.repo.Update(ctx, wave); err != nil {
		return fmt.Errorf("update wave: %w", err)
	}
	if err := s.repo.SaveTasks(ctx, wave.ID, wave.Tasks); err != nil {
		return err
	}

	if wave.Status != from {
		logger.Info(ctx, "picking wave settled",
			"id", wave.ID,
			"number", wave.Number,
			"status", wave.Status)
		return s.recordTransition(ctx, wave, from)
	}
	return nil
}

func (s *Service) detachAll(ctx context.Context, wave *Wave) error {
	for _, orderID := range wave.OrderIDs {
		if err := s.outbound.DetachFromWave(ctx, orderID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) getForUpdate(ctx context.Context, waveID id.ID) (*Wave, error) {
	wave, err := s.repo.GetForUpdate(ctx, waveID)
	if err != nil {
		return nil, err
	}
	return s.loadParts(ctx, wave)
}

func (s *Service) loadParts(ctx context.Context, wave *Wave) (*Wave, error) {
	orderIDs, err := s.repo.GetOrderIDs(ctx, wave.ID)
	if err != nil {
		return nil, fmt.Errorf("get member orders: %w", err)
	}
	wave.OrderIDs = orderIDs

	tasks, err := s.repo.GetTasks(ctx, wave.ID)
	if err != nil {
		return nil, fmt.Errorf("get tasks: %w", err)
	}
	wave.Tasks = tasks
	return wave, nil
}

func (s *Service) recordTransition(ctx context.Context, wave *Wave, from WaveStatus) error {
	payload, err := json.Marshal(wave)
	if err != nil {
		return fmt.Errorf("marshal transition payload: %w", err)
	}
	entry := audit.NewEntry(EntityType, wave.ID, string(from), string(wave.Status),
		corecontext.OperatorOrSystem(ctx), payload)
	if err := s.trail.Record(ctx, entry); err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}
