package outbound

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kardex/internal/core/apperror"
	corecontext "kardex/internal/core/context"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/numerator"
	"kardex/internal/core/tx"
	"kardex/internal/core/types"
	"kardex/internal/domain"
	"kardex/internal/domain/audit"
	"kardex/internal/domain/stock"
	"kardex/pkg/logger"
)

// EntityType tags transition trail entries for this workflow.
const EntityType = "outbound_order"

// Service provides business operations for outbound orders.
type Service struct {
	repo      Repository
	stock     *stock.Service
	numerator numerator.Generator
	txManager tx.Manager
	trail     audit.Trail
}

// NewService creates the outbound order service.
func NewService(
	repo Repository,
	stockSvc *stock.Service,
	numerator numerator.Generator,
	txManager tx.Manager,
	trail audit.Trail,
) *Service {
	if trail == nil {
		trail = audit.NopTrail{}
	}
	return &Service{
		repo:      repo,
		stock:     stockSvc,
		numerator: numerator,
		txManager: txManager,
		trail:     trail,
	}
}

// Create creates a new draft outbound order.
func (s *Service) Create(ctx context.Context, order *Order) error {
	if err := order.Validate(ctx); err != nil {
		return err
	}

	if order.Number == "" {
		cfg := numerator.DefaultConfig(NumberPrefix)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		order.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return s.repo.SaveItems(ctx, order.ID, order.Items)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "outbound order created",
		"id", order.ID,
		"number", order.Number)
	return nil
}

// GetByID retrieves an outbound order with items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	order.Items = items
	return order, nil
}

// Update updates a draft outbound order.
func (s *Service) Update(ctx context.Context, order *Order) error {
	if err := order.CanModify(); err != nil {
		return err
	}
	if err := order.Validate(ctx); err != nil {
		return err
	}

	order.Touch(corecontext.OperatorOrSystem(ctx))
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return s.repo.SaveItems(ctx, order.ID, order.Items)
	})
}

// Delete removes a draft or cancelled order and its items.
func (s *Service) Delete(ctx context.Context, orderID id.ID) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if order.Status != StatusDraft && order.Status != StatusCancelled {
		return apperror.NewBusinessRule("ORDER_LOCKED",
			"only draft or cancelled orders can be deleted").
			WithDetail("status", string(order.Status))
	}

	return s.repo.Delete(ctx, orderID)
}

// List retrieves outbound orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	return s.repo.List(ctx, filter)
}

// Audit confirms a draft order. No stock effect.
func (s *Service) Audit(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.getForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		from := order.Status
		if err := order.MarkAudited(); err != nil {
			return err
		}

		order.Touch(corecontext.OperatorOrSystem(ctx))
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return s.recordTransition(ctx, order, from)
	})
}

// StartPicking enters picking and reserves the plan quantity of every
// item. Any item failing the reservation aborts the whole transition and
// rolls back the reservations already taken inside it.
func (s *Service) StartPicking(ctx context.Context, orderID id.ID) error {
	operator := corecontext.OperatorOrSystem(ctx)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.getForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		from := order.Status
		if err := order.MarkPicking(); err != nil {
			return err
		}

		for i := range order.Items {
			item := &order.Items[i]
			key := item.StockKey(order.WarehouseID)
			if err := s.stock.Reserve(ctx, key, item.PlanQuantity); err != nil {
				return err
			}
			item.ReservedQuantity = item.PlanQuantity
		}

		order.Touch(operator)
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if err := s.repo.SaveItems(ctx, order.ID, order.Items); err != nil {
			return err
		}
		return s.recordTransition(ctx, order, from)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "outbound picking started", "id", orderID)
	return nil
}

// RecordPick accrues picked quantity on one item while the order is in
// Picking. Picked quantity may not exceed the plan.
func (s *Service) RecordPick(ctx context.Context, orderID, lineID id.ID, quantity types.Quantity) error {
	if !quantity.IsPositive() {
		return apperror.NewValidation("pick quantity must be positive")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.getForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if order.Status != StatusPicking {
			return apperror.NewInvalidTransition(EntityType, string(order.Status), string(StatusPicking)).
				WithDetail("reason", "picks can only be recorded while picking")
		}

		item := order.findItem(lineID)
		if item == nil {
			return apperror.NewNotFound("outbound item", lineID)
		}

		if item.PickedQuantity+quantity > item.PlanQuantity {
			return apperror.NewValidation("picked quantity exceeds plan").
				WithDetail("lineId", lineID).
				WithDetail("plan", item.PlanQuantity.String()).
				WithDetail("picked", (item.PickedQuantity + quantity).String())
		}

		item.PickedQuantity += quantity
		order.Touch(corecontext.OperatorOrSystem(ctx))
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return s.repo.SaveItems(ctx, order.ID, order.Items)
	})
}

// MarkReadyToShip closes picking. Shipped quantity defaults to the picked
// quantity per item and may be corrected before Complete.
func (s *Service) MarkReadyToShip(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.getForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		from := order.Status
		if err := order.MarkAwaitingShipment(); err != nil {
			return err
		}

		for i := range order.Items {
			item := &order.Items[i]
			if item.ShippedQuantity.IsZero() {
				item.ShippedQuantity = item.PickedQuantity
			}
		}

		order.Touch(corecontext.OperatorOrSystem(ctx))
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if err := s.repo.SaveItems(ctx, order.ID, order.Items); err != nil {
			return err
		}
		return s.recordTransition(ctx, order, from)
	})
}

// RecordShipment corrects shipped quantity on one item while awaiting
// shipment. Shipped quantity may not exceed the reservation.
func (s *Service) RecordShipment(ctx context.Context, orderID, lineID id.ID, quantity types.Quantity) error {
	if quantity.IsNegative() {
		return apperror.NewValidation("shipped quantity must not be negative")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.getForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if order.Status != StatusAwaitingShipment {
			return apperror.NewInvalidTransition(EntityType, string(order.Status), string(StatusAwaitingShipment)).
				WithDetail("reason", "shipment can only be recorded while awaiting shipment")
		}

		item := order.findItem(lineID)
		if item == nil {
			return apperror.NewNotFound("outbound item", lineID)
		}
		if quantity > item.ReservedQuantity {
			return apperror.NewValidation("shipped quantity exceeds reservation").
				WithDetail("lineId", lineID).
				WithDetail("reserved", item.ReservedQuantity.String())
		}

		item.ShippedQuantity = quantity
		order.Touch(corecontext.OperatorOrSystem(ctx))
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return s.repo.SaveItems(ctx, order.ID, order.Items)
	})
}

// Complete ships the order: consumes the shipped quantity of every item
// against its reservation, one OUTBOUND ledger entry per shipped item,
// then releases whatever reservation remains. Any item whose shipped
// quantity exceeds its reservation aborts the whole transition and rolls
// back consumptions already applied inside it.
func (s *Service) Complete(ctx context.Context, orderID id.ID) error {
	operator := corecontext.OperatorOrSystem(ctx)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.getForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		from := order.Status
		if err := order.MarkCompleted(); err != nil {
			return err
		}

		for i := range order.Items {
			item := &order.Items[i]
			key := item.StockKey(order.WarehouseID)

			if item.ShippedQuantity > item.ReservedQuantity {
				return apperror.NewInsufficientStock(key.String(),
					item.ShippedQuantity.Float64(), item.ReservedQuantity.Float64()).
					WithDetail("reason", "shipped quantity exceeds reservation").
					WithDetail("lineId", item.LineID)
			}

			if item.ShippedQuantity.IsPositive() {
				ref := stock.PostingRef{
					BusinessType: EntityType,
					BusinessNo:   order.Number,
					LineRef:      item.LineID.String(),
					Operator:     operator,
				}
				if _, err := s.stock.Consume(ctx, key, item.ShippedQuantity, entity.OpOutbound, ref); err != nil {
					return err
				}
			}

			if leftover := item.ReservedQuantity - item.ShippedQuantity; leftover.IsPositive() {
				if err := s.stock.Release(ctx, key, leftover); err != nil {
					return err
				}
			}
			item.ReservedQuantity = 0
		}

		order.Touch(operator)
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if err := s.repo.SaveItems(ctx, order.ID, order.Items); err != nil {
			return err
		}
		return s.recordTransition(ctx, order, from)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "outbound order completed", "id", orderID)
	return nil
}

// Cancel aborts a non-completed order and releases every outstanding
// reservation. Reservations are tracked per item and zeroed on release,
// so retrying a cancel is safe.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) error {
	operator := corecontext.OperatorOrSystem(ctx)

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.getForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		from := order.Status
		if err := order.MarkCancelled(); err != nil {
			return err
		}

		for i := range order.Items {
			item := &order.Items[i]
			if !item.ReservedQuantity.IsPositive() {
				continue
			}
			if err := s.stock.Release(ctx, item.StockKey(order.WarehouseID), item.ReservedQuantity); err != nil {
				return err
			}
			item.ReservedQuantity = 0
		}
		order.WaveID = nil

		order.Touch(operator)
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if err := s.repo.SaveItems(ctx, order.ID, order.Items); err != nil {
			return err
		}
		return s.recordTransition(ctx, order, from)
	})
}

// AttachToWave marks the order as a member of an active wave. Fails when
// the order already belongs to another active wave or is not picking.
func (s *Service) AttachToWave(ctx context.Context, orderID, waveID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if order.Status != StatusPicking {
			return apperror.NewInvalidTransition(EntityType, string(order.Status), string(StatusPicking)).
				WithDetail("reason", "only picking orders can join a wave")
		}
		if order.WaveID != nil && *order.WaveID != waveID {
			return apperror.NewConflict("order already belongs to an active wave").
				WithDetail("orderId", orderID).
				WithDetail("waveId", *order.WaveID)
		}

		order.WaveID = &waveID
		order.Touch(corecontext.OperatorOrSystem(ctx))
		return s.repo.Update(ctx, order)
	})
}

// DetachFromWave clears wave membership, freeing the order for another
// wave. Idempotent.
func (s *Service) DetachFromWave(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.WaveID == nil {
			return nil
		}

		order.WaveID = nil
		order.Touch(corecontext.OperatorOrSystem(ctx))
		return s.repo.Update(ctx, order)
	})
}

func (o *Order) findItem(lineID id.ID) *Item {
	for i := range o.Items {
		if o.Items[i].LineID == lineID {
			return &o.Items[i]
		}
	}
	return nil
}

func (s *Service) getForUpdate(ctx context.Context, orderID id.ID) (*Order, error) {
	order, err := s.repo.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GetItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	order.Items = items
	return order, nil
}

func (s *Service) recordTransition(ctx context.Context, order *Order, from Status) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal transition payload: %w", err)
	}
	entry := audit.NewEntry(EntityType, order.ID, string(from), string(order.Status),
		corecontext.OperatorOrSystem(ctx), payload)
	if err := s.trail.Record(ctx, entry); err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}
