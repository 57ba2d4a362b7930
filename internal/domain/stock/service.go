package stock

import (
	"context"
	"fmt"
	"time"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/tx"
	"kardex/internal/core/types"
	"kardex/internal/domain/ledger"
	"kardex/pkg/logger"
)

// PostingRef identifies the business origin of a mutation. Every applied
// Adjust/Consume stamps these onto the ledger entry it appends.
type PostingRef struct {
	BusinessType string
	BusinessNo   string
	LineRef      string
	Operator     string
}

// Mutation reports the outcome of one posting.
// Applied=false means the idempotency check found the tuple already in the
// ledger: no second effect happened and Before/After echo the first post.
type Mutation struct {
	Before  types.Quantity
	After   types.Quantity
	Applied bool
}

// Service is the stock record store: the single component allowed to
// mutate quantities. Every applied Adjust/Consume appends exactly one
// ledger entry within the same transaction as the record update, so the
// two can never diverge.
type Service struct {
	records Repository
	entries ledger.Repository
	txm     tx.Manager
}

// NewService creates the stock record store service.
func NewService(records Repository, entries ledger.Repository, txm tx.Manager) *Service {
	return &Service{
		records: records,
		entries: entries,
		txm:     txm,
	}
}

// Adjust applies a signed quantity delta to a key and appends the ledger
// entry atomically. Fails with InsufficientStock when the post-condition
// would violate lock <= quantity; failure leaves the record unchanged.
func (s *Service) Adjust(ctx context.Context, key entity.StockKey, delta types.Quantity, op entity.OperationType, ref PostingRef) (Mutation, error) {
	if delta.IsZero() {
		return Mutation{}, apperror.NewValidation("delta must be non-zero")
	}

	var mut Mutation
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if replay, ok, err := s.findApplied(ctx, op, ref); err != nil {
			return err
		} else if ok {
			mut = replay
			return nil
		}

		rec, err := s.records.GetForUpdate(ctx, key)
		if err != nil {
			return fmt.Errorf("lock record %s: %w", key, err)
		}

		after := rec.Quantity + delta
		if after < rec.LockQuantity || after < 0 {
			return apperror.NewInsufficientStock(key.String(), delta.Abs().Float64(), rec.Available().Float64())
		}

		before := rec.Quantity
		rec.Quantity = after
		rec.Touch(ref.Operator)

		if err := s.records.Save(ctx, rec); err != nil {
			return fmt.Errorf("save record %s: %w", key, err)
		}
		if err := s.appendEntry(ctx, key, op, ref, before, delta); err != nil {
			return err
		}

		mut = Mutation{Before: before, After: after, Applied: true}
		return nil
	})
	if err != nil {
		return Mutation{}, err
	}

	if mut.Applied {
		logger.Info(ctx, "stock adjusted",
			"key", key.String(),
			"operation", op,
			"business_no", ref.BusinessNo,
			"change", delta.String(),
			"after", mut.After.String(),
		)
	}
	return mut, nil
}

// Reserve increases lockQuantity without changing quantity. Fails with
// InsufficientStock when amount exceeds the available quantity.
// Reservations do not post ledger entries: no quantity changed.
func (s *Service) Reserve(ctx context.Context, key entity.StockKey, amount types.Quantity) error {
	if !amount.IsPositive() {
		return apperror.NewValidation("reserve amount must be positive")
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.records.GetForUpdate(ctx, key)
		if err != nil {
			return fmt.Errorf("lock record %s: %w", key, err)
		}

		if amount > rec.Available() {
			return apperror.NewInsufficientStock(key.String(), amount.Float64(), rec.Available().Float64())
		}

		rec.LockQuantity += amount
		rec.Touch("")
		return s.records.Save(ctx, rec)
	})
}

// Release decreases lockQuantity. Amounts beyond the current lock are
// clamped: workflows track outstanding reservations per item and zero them
// after releasing, so a retried cancellation releases nothing more.
func (s *Service) Release(ctx context.Context, key entity.StockKey, amount types.Quantity) error {
	if amount.IsNegative() {
		return apperror.NewValidation("release amount must not be negative")
	}
	if amount.IsZero() {
		return nil
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.records.GetForUpdate(ctx, key)
		if err != nil {
			return fmt.Errorf("lock record %s: %w", key, err)
		}

		if amount > rec.LockQuantity {
			logger.Warn(ctx, "release clamped to current lock",
				"key", key.String(),
				"requested", amount.String(),
				"locked", rec.LockQuantity.String(),
			)
			amount = rec.LockQuantity
		}

		rec.LockQuantity -= amount
		rec.Touch("")
		return s.records.Save(ctx, rec)
	})
}

// Consume fulfills a reservation: decreases quantity and lockQuantity
// together and appends the ledger entry atomically. Fails with
// InsufficientStock when amount exceeds the reserved quantity, leaving
// both quantities unchanged.
func (s *Service) Consume(ctx context.Context, key entity.StockKey, amount types.Quantity, op entity.OperationType, ref PostingRef) (Mutation, error) {
	if !amount.IsPositive() {
		return Mutation{}, apperror.NewValidation("consume amount must be positive")
	}

	var mut Mutation
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if replay, ok, err := s.findApplied(ctx, op, ref); err != nil {
			return err
		} else if ok {
			mut = replay
			return nil
		}

		rec, err := s.records.GetForUpdate(ctx, key)
		if err != nil {
			return fmt.Errorf("lock record %s: %w", key, err)
		}

		if amount > rec.LockQuantity {
			return apperror.NewInsufficientStock(key.String(), amount.Float64(), rec.LockQuantity.Float64()).
				WithDetail("reason", "amount exceeds reservation")
		}

		before := rec.Quantity
		rec.Quantity -= amount
		rec.LockQuantity -= amount
		rec.Touch(ref.Operator)

		if err := s.records.Save(ctx, rec); err != nil {
			return fmt.Errorf("save record %s: %w", key, err)
		}
		if err := s.appendEntry(ctx, key, op, ref, before, amount.Neg()); err != nil {
			return err
		}

		mut = Mutation{Before: before, After: rec.Quantity, Applied: true}
		return nil
	})
	if err != nil {
		return Mutation{}, err
	}

	if mut.Applied {
		logger.Info(ctx, "reservation consumed",
			"key", key.String(),
			"operation", op,
			"business_no", ref.BusinessNo,
			"amount", amount.String(),
			"after", mut.After.String(),
		)
	}
	return mut, nil
}

// SetExpireDate records the batch expiry on a key. Metadata only: no
// quantity effect, no ledger entry.
func (s *Service) SetExpireDate(ctx context.Context, key entity.StockKey, expire time.Time) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.records.GetForUpdate(ctx, key)
		if err != nil {
			return fmt.Errorf("lock record %s: %w", key, err)
		}
		rec.ExpireDate = &expire
		rec.Touch("")
		return s.records.Save(ctx, rec)
	})
}

// Get returns the current record for a key (zero record if never seen).
func (s *Service) Get(ctx context.Context, key entity.StockKey) (entity.StockRecord, error) {
	return s.records.Get(ctx, key)
}

// Available returns quantity minus lockQuantity for a key.
func (s *Service) Available(ctx context.Context, key entity.StockKey) (types.Quantity, error) {
	rec, err := s.records.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	return rec.Available(), nil
}

// List returns records matching the filter.
func (s *Service) List(ctx context.Context, filter RecordFilter) ([]entity.StockRecord, error) {
	return s.records.List(ctx, filter)
}

// findApplied looks up the idempotency tuple in the ledger.
func (s *Service) findApplied(ctx context.Context, op entity.OperationType, ref PostingRef) (Mutation, bool, error) {
	if ref.BusinessNo == "" {
		return Mutation{}, false, apperror.NewValidation("business number is required for posting")
	}

	existing, err := s.entries.GetByPosting(ctx, op, ref.BusinessNo, ref.LineRef)
	if err != nil {
		if apperror.IsNotFound(err) {
			return Mutation{}, false, nil
		}
		return Mutation{}, false, fmt.Errorf("idempotency lookup: %w", err)
	}

	logger.Debug(ctx, "duplicate posting ignored",
		"operation", op,
		"business_no", ref.BusinessNo,
		"line_ref", ref.LineRef,
	)
	return Mutation{Before: existing.QuantityBefore, After: existing.QuantityAfter, Applied: false}, true, nil
}

func (s *Service) appendEntry(ctx context.Context, key entity.StockKey, op entity.OperationType, ref PostingRef, before, change types.Quantity) error {
	entry := entity.NewLedgerEntry(key, op, before, change)
	entry.BusinessType = ref.BusinessType
	entry.BusinessNo = ref.BusinessNo
	entry.LineRef = ref.LineRef
	entry.Operator = ref.Operator

	if err := s.entries.Append(ctx, &entry); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}
