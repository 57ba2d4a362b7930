package inbound

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
const EntityType = "inbound_order"

// Service provides business operations for inbound orders.
type Service struct {
	repo      Repository
	stock     *stock.Service
	numerator numerator.Generator
	txManager tx.Manager
	trail     audit.Trail
}

// NewService creates the inbound order service.
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

// Create creates a new draft inbound order.
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

	logger.Info(ctx, "inbound order created",
		"id", order.ID,
		"number", order.Number)
	return nil
}

// GetByID retrieves an inbound order with items.
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

// Update updates a draft inbound order.
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
// Orders that posted stock are kept for audit continuity.
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

// List retrieves inbound orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	return s.repo.List(ctx, filter)
}

// Audit confirms a draft order. No stock effect.
func (s *Service) Audit(ctx context.Context, orderID id.ID) error {
	return s.transitionOnly(ctx, orderID, (*Order).MarkAudited)
}

// StartReceiving opens the order for receipt recording.
func (s *Service) StartReceiving(ctx context.Context, orderID id.ID) error {
	return s.transitionOnly(ctx, orderID, (*Order).StartReceiving)
}

// Receipt records received and quality-checked quantities for one item.
type Receipt struct {
	LineID              id.ID
	ReceivedQuantity    types.Quantity
	QualifiedQuantity   types.Quantity
	UnqualifiedQuantity types.Quantity
	ExpireDate          *time.Time
}

// RecordReceipt records receipt quantities on items while the order is in
// Receiving. Quantities are absolute per item, so recording is repeatable.
// No stock posting happens here: quantities post at Complete.
func (s *Service) RecordReceipt(ctx context.Context, orderID id.ID, receipts []Receipt) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.getForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if order.Status != StatusReceiving {
			return apperror.NewInvalidTransition(EntityType, string(order.Status), string(StatusReceiving)).
				WithDetail("reason", "receipts can only be recorded while receiving")
		}

		byLine := make(map[id.ID]*Item, len(order.Items))
		for i := range order.Items {
			byLine[order.Items[i].LineID] = &order.Items[i]
		}

		for _, r := range receipts {
			item, ok := byLine[r.LineID]
			if !ok {
				return apperror.NewNotFound("inbound item", r.LineID)
			}
			if r.ReceivedQuantity.IsNegative() || r.QualifiedQuantity.IsNegative() || r.UnqualifiedQuantity.IsNegative() {
				return apperror.NewValidation("receipt quantities must not be negative").
					WithDetail("lineId", r.LineID)
			}
			if r.QualifiedQuantity+r.UnqualifiedQuantity > r.ReceivedQuantity {
				return apperror.NewValidation("qualified plus unqualified exceeds received").
					WithDetail("lineId", r.LineID)
			}

			item.ReceivedQuantity = r.ReceivedQuantity
			item.QualifiedQuantity = r.QualifiedQuantity
			item.UnqualifiedQuantity = r.UnqualifiedQuantity
			if r.ExpireDate != nil {
				item.ExpireDate = r.ExpireDate
			}
		}

		order.Touch(corecontext.OperatorOrSystem(ctx))
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return s.repo.SaveItems(ctx, order.ID, order.Items)
	})
}

// Complete closes receiving and posts the qualified quantity of every item
// to stock, one INBOUND ledger entry per item, all in one transaction.
// Unqualified quantity is recorded on the item but never posts.
func (s *Service) Complete(ctx context.Context, orderID id.ID) error {
	operator := corecontext.OperatorOrSystem(ctx)

	var completed *Order
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
			if !item.QualifiedQuantity.IsPositive() {
				continue
			}

			key := item.StockKey(order.WarehouseID)
			ref := stock.PostingRef{
				BusinessType: EntityType,
				BusinessNo:   order.Number,
				LineRef:      item.LineID.String(),
				Operator:     operator,
			}
			if _, err := s.stock.Adjust(ctx, key, item.QualifiedQuantity, entity.OpInbound, ref); err != nil {
				return err
			}

			if item.ExpireDate != nil {
				if err := s.stock.SetExpireDate(ctx, key, *item.ExpireDate); err != nil {
					return err
				}
			}
		}

		order.Touch(operator)
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if err := s.repo.SaveItems(ctx, order.ID, order.Items); err != nil {
			return err
		}

		completed = order
		return s.recordTransition(ctx, order, from)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "inbound order completed",
		"id", completed.ID,
		"number", completed.Number,
		"items", len(completed.Items))
	return nil
}

// Cancel aborts a non-completed order. Nothing has posted yet, so there
// is nothing to reverse.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) error {
	return s.transitionOnly(ctx, orderID, (*Order).MarkCancelled)
}

// transitionOnly applies a pure status change with no stock effect.
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

		logger.Info(ctx, "inbound order transition",
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
