package stocktaking

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
const EntityType = "taking_plan"

// Service provides business operations for taking plans.
type Service struct {
	repo      Repository
	stock     *stock.Service
	numerator numerator.Generator
	txManager tx.Manager
	trail     audit.Trail
}

// NewService creates the stock taking service.
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

// Create creates a new draft taking plan.
func (s *Service) Create(ctx context.Context, plan *Plan) error {
	if err := plan.Validate(ctx); err != nil {
		return err
	}

	if plan.Number == "" {
		cfg := numerator.DefaultConfig(NumberPrefix)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		plan.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, plan)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "taking plan created",
		"id", plan.ID,
		"number", plan.Number)
	return nil
}

// GetByID retrieves a taking plan with lines.
func (s *Service) GetByID(ctx context.Context, planID id.ID) (*Plan, error) {
	plan, err := s.repo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	plan.Lines = lines
	return plan, nil
}

// Update updates a draft plan's scope.
func (s *Service) Update(ctx context.Context, plan *Plan) error {
	if err := plan.CanModify(); err != nil {
		return err
	}
	if err := plan.Validate(ctx); err != nil {
		return err
	}

	plan.Touch(corecontext.OperatorOrSystem(ctx))
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, plan)
	})
}

// Delete removes a draft or cancelled plan and its lines.
func (s *Service) Delete(ctx context.Context, planID id.ID) error {
	plan, err := s.repo.GetByID(ctx, planID)
	if err != nil {
		return err
	}

	if plan.Status != PlanDraft && plan.Status != PlanCancelled {
		return apperror.NewBusinessRule("PLAN_LOCKED",
			"only draft or cancelled plans can be deleted").
			WithDetail("status", string(plan.Status))
	}

	return s.repo.Delete(ctx, planID)
}

// List retrieves taking plans with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Plan], error) {
	return s.repo.List(ctx, filter)
}

// Start begins counting: generates one line per stock record in scope,
// snapshotting the record quantity as the book value the adjustment will
// later compare against.
func (s *Service) Start(ctx context.Context, planID id.ID) error {
	operator := corecontext.OperatorOrSystem(ctx)

	var generated int
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		plan, err := s.getForUpdate(ctx, planID)
		if err != nil {
			return err
		}

		from := plan.Status
		if err := plan.MarkInProgress(); err != nil {
			return err
		}

		records, err := s.stock.List(ctx, stock.RecordFilter{
			WarehouseID: &plan.WarehouseID,
			LocationID:  plan.LocationID,
			GoodsID:     plan.GoodsID,
		})
		if err != nil {
			return fmt.Errorf("list records in scope: %w", err)
		}
		if len(records) == 0 {
			return apperror.NewBusinessRule("EMPTY_SCOPE",
				"no stock records match the plan scope")
		}

		plan.Lines = plan.Lines[:0]
		for i, rec := range records {
			plan.Lines = append(plan.Lines, Line{
				LineID:       id.New(),
				LineNo:       i + 1,
				GoodsID:      rec.GoodsID,
				LocationID:   rec.LocationID,
				BatchNo:      rec.BatchNo,
				BookQuantity: rec.Quantity,
				Status:       LinePending,
			})
		}
		generated = len(plan.Lines)

		plan.Touch(operator)
		if err := s.repo.Update(ctx, plan); err != nil {
			return fmt.Errorf("update plan: %w", err)
		}
		if err := s.repo.SaveLines(ctx, plan.ID, plan.Lines); err != nil {
			return err
		}
		return s.recordTransition(ctx, plan, from)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "taking plan started",
		"id", planID,
		"lines", generated)
	return nil
}

// Count records the actual quantity for one line. No stock effect.
func (s *Service) Count(ctx context.Context, planID, lineID id.ID, actual types.Quantity) error {
	return s.lineOp(ctx, planID, lineID, func(line *Line) error {
		return line.MarkCounted(actual)
	})
}

// Review confirms a counted line.
func (s *Service) Review(ctx context.Context, planID, lineID id.ID) error {
	return s.lineOp(ctx, planID, lineID, (*Line).MarkReviewed)
}

// Exclude drops a line from the count without adjusting.
func (s *Service) Exclude(ctx context.Context, planID, lineID id.ID) error {
	return s.lineOp(ctx, planID, lineID, (*Line).MarkExcluded)
}

// Adjust posts the reviewed line's difference (actual minus book) as a
// TAKING_ADJUST ledger entry and settles the line. A zero difference
// settles without posting. The plan completes automatically when its
// last line settles.
func (s *Service) Adjust(ctx context.Context, planID, lineID id.ID) error {
	operator := corecontext.OperatorOrSystem(ctx)

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		plan, err := s.getForUpdate(ctx, planID)
		if err != nil {
			return err
		}
		if plan.Status != PlanInProgress {
			return apperror.NewInvalidTransition(EntityType, string(plan.Status), string(PlanInProgress)).
				WithDetail("reason", "adjustments require an in-progress plan")
		}

		line := plan.FindLine(lineID)
		if line == nil {
			return apperror.NewNotFound("taking line", lineID)
		}

		if err := line.MarkAdjusted(); err != nil {
			return err
		}

		if diff := line.Diff(); !diff.IsZero() {
			ref := stock.PostingRef{
				BusinessType: EntityType,
				BusinessNo:   plan.Number,
				LineRef:      line.LineID.String(),
				Operator:     operator,
			}
			if _, err := s.stock.Adjust(ctx, line.StockKey(plan.WarehouseID), diff, entity.OpTakingAdjust, ref); err != nil {
				return err
			}
		}

		from := plan.Status
		plan.RefreshAggregates()

		plan.Touch(operator)
		if err := s.repo.Update(ctx, plan); err != nil {
			return fmt.Errorf("update plan: %w", err)
		}
		if err := s.repo.SaveLines(ctx, plan.ID, plan.Lines); err != nil {
			return err
		}

		logger.Info(ctx, "taking line adjusted",
			"plan", plan.Number,
			"line", lineID,
			"diff", line.Diff().String())

		if plan.Status != from {
			return s.recordTransition(ctx, plan, from)
		}
		return nil
	})
}

// Cancel aborts a plan. Already-posted adjustments stay in the ledger.
func (s *Service) Cancel(ctx context.Context, planID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		plan, err := s.getForUpdate(ctx, planID)
		if err != nil {
			return err
		}

		from := plan.Status
		if err := plan.MarkCancelled(); err != nil {
			return err
		}

		plan.Touch(corecontext.OperatorOrSystem(ctx))
		if err := s.repo.Update(ctx, plan); err != nil {
			return fmt.Errorf("update plan: %w", err)
		}
		return s.recordTransition(ctx, plan, from)
	})
}

// lineOp applies a pure line status change and refreshes plan aggregates.
func (s *Service) lineOp(ctx context.Context, planID, lineID id.ID, move func(*Line) error) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		plan, err := s.getForUpdate(ctx, planID)
		if err != nil {
			return err
		}
		if plan.Status != PlanInProgress {
			return apperror.NewInvalidTransition(EntityType, string(plan.Status), string(PlanInProgress)).
				WithDetail("reason", "counting requires an in-progress plan")
		}

		line := plan.FindLine(lineID)
		if line == nil {
			return apperror.NewNotFound("taking line", lineID)
		}
		if err := move(line); err != nil {
			return err
		}

		from := plan.Status
		plan.RefreshAggregates()

		plan.Touch(corecontext.OperatorOrSystem(ctx))
		if err := s.repo.Update(ctx, plan); err != nil {
			return fmt.Errorf("update plan: %w", err)
		}
		if err := s.repo.SaveLines(ctx, plan.ID, plan.Lines); err != nil {
			return err
		}

		if plan.Status != from {
			return s.recordTransition(ctx, plan, from)
		}
		return nil
	})
}

func (s *Service) getForUpdate(ctx context.Context, planID id.ID) (*Plan, error) {
	plan, err := s.repo.GetForUpdate(ctx, planID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	plan.Lines = lines
	return plan, nil
}

func (s *Service) recordTransition(ctx context.Context, plan *Plan, from PlanStatus) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal transition payload: %w", err)
	}
	entry := audit.NewEntry(EntityType, plan.ID, string(from), string(plan.Status),
		corecontext.OperatorOrSystem(ctx), payload)
	if err := s.trail.Record(ctx, entry); err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}
