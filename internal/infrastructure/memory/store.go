// Package memory provides an embedded, in-process implementation of every
// storage contract: stock records, ledger, snapshots, workflow orders,
// transition trail and reports. It backs unit tests and single-node
// deployments without postgres.
//
// Concurrency model: mutating transactions are serialized by a store-wide
// mutex held for the whole transaction; reads outside a transaction take
// the read lock per call. Every mutation inside a transaction registers an
// undo step, and a failed transaction unwinds them in reverse, giving the
// same all-or-nothing semantics the postgres transaction provides.
package memory

import (
	"context"
	"sync"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/tx"
	"kardex/internal/domain/audit"
	"kardex/internal/domain/workflows/inbound"
	"kardex/internal/domain/workflows/outbound"
	"kardex/internal/domain/workflows/picking"
	"kardex/internal/domain/workflows/stockmove"
	"kardex/internal/domain/workflows/stocktaking"
)

// errNoTransaction reports a lock-requiring call made outside a
// transaction.
var errNoTransaction = apperror.NewInternal(nil).
	WithDetail("reason", "operation requires an enclosing transaction")

type txKey struct{}

// memTx is one in-flight transaction: the undo journal of every mutation
// applied so far, unwound in reverse on rollback.
type memTx struct {
	undo []func()
}

func (t *memTx) register(undo func()) {
	t.undo = append(t.undo, undo)
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

// Store is the embedded storage engine.
type Store struct {
	mu sync.RWMutex

	records map[entity.StockKey]entity.StockRecord

	entries      []entity.LedgerEntry
	postingIndex map[postingKey]int

	snapshots       map[id.ID]snapshotData
	snapshotsByDate []id.ID

	inbound  *orderBucket[inbound.Order, *inbound.Order, inbound.Item]
	outbound *orderBucket[outbound.Order, *outbound.Order, outbound.Item]
	moves    *orderBucket[stockmove.Order, *stockmove.Order, stockmove.Item]
	takings  *orderBucket[stocktaking.Plan, *stocktaking.Plan, stocktaking.Line]
	waves    *orderBucket[picking.Wave, *picking.Wave, picking.Task]

	waveOrders map[id.ID][]id.ID

	trail []audit.Entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records:      make(map[entity.StockKey]entity.StockRecord),
		postingIndex: make(map[postingKey]int),
		snapshots:    make(map[id.ID]snapshotData),
		inbound:      newOrderBucket[inbound.Order, *inbound.Order, inbound.Item](),
		outbound:     newOrderBucket[outbound.Order, *outbound.Order, outbound.Item](),
		moves:        newOrderBucket[stockmove.Order, *stockmove.Order, stockmove.Item](),
		takings:      newOrderBucket[stocktaking.Plan, *stocktaking.Plan, stocktaking.Line](),
		waves:        newOrderBucket[picking.Wave, *picking.Wave, picking.Task](),
		waveOrders:   make(map[id.ID][]id.ID),
	}
}

// RunInTransaction implements tx.Manager. Nested calls join the caller's
// transaction; the outermost call owns commit and rollback.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &memTx{}
	err := fn(context.WithValue(ctx, txKey{}, t))
	if err != nil {
		t.rollback()
		return err
	}
	return nil
}

// ReadOnly implements tx.ReadOnlyManager: a consistent read view under
// the read lock. Mutations inside fn fail because no transaction is
// carried in the context.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx)
}

func txFromContext(ctx context.Context) *memTx {
	t, _ := ctx.Value(txKey{}).(*memTx)
	return t
}

// currentTx returns the enclosing transaction or an error when a mutating
// call arrives outside one.
func (s *Store) currentTx(ctx context.Context) (*memTx, error) {
	if t := txFromContext(ctx); t != nil {
		return t, nil
	}
	return nil, errNoTransaction
}

// read runs fn under the read lock unless a transaction already holds the
// write lock.
func (s *Store) read(ctx context.Context, fn func() error) error {
	if txFromContext(ctx) != nil {
		return fn()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}

// write runs fn inside the enclosing transaction, or in a one-shot
// transaction when the caller did not open one.
func (s *Store) write(ctx context.Context, fn func(t *memTx) error) error {
	if t := txFromContext(ctx); t != nil {
		return fn(t)
	}
	return s.RunInTransaction(ctx, func(ctx context.Context) error {
		return fn(txFromContext(ctx))
	})
}

var (
	_ tx.Manager         = (*Store)(nil)
	_ tx.ReadOnlyManager = (*Store)(nil)
)
