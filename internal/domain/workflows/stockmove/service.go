package stockmove

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
	"kardex/internal/domain"
	"kardex/internal/domain/audit"
	"kardex/internal/domain/stock"
	"kardex/pkg/logger"
)

// EntityType tags transition trail entries for this workflow.
const EntityType = "move_order"

// Service provides business operations for move orders.
type Service struct {
	repo      Repository
	stock     *stock.Service
	numerator numerator.Generator
	txManager tx.Manager
	trail     audit.Trail
}

// NewService creates the move order service.
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

// Create creates a new pending move order.
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

	logger.Info(ctx, "move order created",
		"id", order.ID,
		"number", order.Number)
	return nil
}

// GetByID retrieves a move order with items.
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

// Update updates a pending move order.
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

// Delete removes a pending or cancelled order and its items.
func (s *Service) Delete(ctx context.Context, orderID id.ID) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if order.Status != StatusPending && order.Status != StatusCancelled {
		return apperror.NewBusinessRule("ORDER_LOCKED",
			"only pending or cancelled moves can be deleted").
			WithDetail("status", string(order.Status))
	}

	return s.repo.Delete(ctx, orderID)
}

// List retrieves move orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	return s.repo.List(ctx, filter)
}

// Execute posts both legs of every item: MOVE_OUT at the source key and
// MOVE_IN at the destination key. The legs run in one transaction, so a
// failed MOVE_IN rolls the already-applied MOVE_OUT back rather than
// leaving it stranded.
func (s *Service) Execute(ctx context.Context, orderID id.ID) error {
	operator := corecontext.OperatorOrSystem(ctx)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.getForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		from := order.Status
		if err := order.MarkExecuting(); err != nil {
			return err
		}

		for i := range order.Items {
			item := &order.Items[i]
			ref := stock.PostingRef{
				BusinessType: EntityType,
				BusinessNo:   order.Number,
				LineRef:      item.LineID.String(),
				Operator:     operator,
			}

			if _, err := s.stock.Adjust(ctx, item.FromKey(order.WarehouseID), item.Quantity.Neg(), entity.OpMoveOut, ref); err != nil {
				return err
			}
			if _, err := s.stock.Adjust(ctx, item.ToKey(order.WarehouseID), item.Quantity, entity.OpMoveIn, ref); err != nil {
				return err
			}
		}

		order.Touch(operator)
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return s.recordTransition(ctx, order, from)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "move order executed", "id", orderID)
	return nil
}

// Complete finalizes an executed move. No stock effect.
func (s *Service) Complete(ctx context.Context, orderID id.ID) error {
	return s.transitionOnly(ctx, orderID, (*Order).MarkCompleted)
}

// Cancel aborts a pending move. Executed moves cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) error {
	return s.transitionOnly(ctx, orderID, (*Order).MarkCancelled)
}

func (s *Service) transitionOnly(ctx context.Context, orderID id.ID, move func(*Order) error) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.getForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		from := order.Status
		if err := move(order); err != nil {
			return err
		}

		order.Touch(corecontext.OperatorOrSystem(ctx))
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		logger.Info(ctx, "move order transition",
			"id", order.ID,
			"number", order.Number,
			"from", from,
			"to", order.Status)
		return s.recordTransition(ctx, order, from)
	})
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
