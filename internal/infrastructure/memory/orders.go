package memory

import (
	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
)

// header is what every workflow order exposes to the generic bucket.
type header interface {
	GetID() id.ID
	GetNumber() string
}

// orderBucket stores one workflow's headers and line items. H is the
// header value type, PH its pointer type (which implements header), I the
// item type. All methods assume the store lock is held; mutations go
// through a transaction for undo registration.
type orderBucket[H any, PH interface {
	header
	*H
}, I any] struct {
	byID     map[id.ID]H
	byNumber map[string]id.ID
	items    map[id.ID][]I
}

func newOrderBucket[H any, PH interface {
	header
	*H
}, I any]() *orderBucket[H, PH, I] {
	return &orderBucket[H, PH, I]{
		byID:     make(map[id.ID]H),
		byNumber: make(map[string]id.ID),
		items:    make(map[id.ID][]I),
	}
}

func (b *orderBucket[H, PH, I]) create(t *memTx, entityName string, h H) error {
	hid := PH(&h).GetID()
	number := PH(&h).GetNumber()

	if _, exists := b.byID[hid]; exists {
		return apperror.NewConflict(entityName + " already exists").
			WithDetail("id", hid)
	}
	if number != "" {
		if _, exists := b.byNumber[number]; exists {
			return apperror.NewConflict(entityName + " number already taken").
				WithDetail("number", number)
		}
	}

	b.byID[hid] = h
	if number != "" {
		b.byNumber[number] = hid
	}
	t.register(func() {
		delete(b.byID, hid)
		if number != "" {
			delete(b.byNumber, number)
		}
	})
	return nil
}

func (b *orderBucket[H, PH, I]) get(entityName string, hid id.ID) (*H, error) {
	h, ok := b.byID[hid]
	if !ok {
		return nil, apperror.NewNotFound(entityName, hid)
	}
	return &h, nil
}

func (b *orderBucket[H, PH, I]) getByNumber(entityName, number string) (*H, error) {
	hid, ok := b.byNumber[number]
	if !ok {
		return nil, apperror.NewNotFound(entityName, number)
	}
	return b.get(entityName, hid)
}

func (b *orderBucket[H, PH, I]) update(t *memTx, entityName string, h H) error {
	hid := PH(&h).GetID()
	prev, exists := b.byID[hid]
	if !exists {
		return apperror.NewNotFound(entityName, hid)
	}

	b.byID[hid] = h
	t.register(func() {
		b.byID[hid] = prev
	})
	return nil
}

func (b *orderBucket[H, PH, I]) remove(t *memTx, entityName string, hid id.ID) error {
	prev, exists := b.byID[hid]
	if !exists {
		return apperror.NewNotFound(entityName, hid)
	}
	number := PH(&prev).GetNumber()
	prevItems, hadItems := b.items[hid]

	delete(b.byID, hid)
	delete(b.byNumber, number)
	delete(b.items, hid)
	t.register(func() {
		b.byID[hid] = prev
		if number != "" {
			b.byNumber[number] = hid
		}
		if hadItems {
			b.items[hid] = prevItems
		}
	})
	return nil
}

func (b *orderBucket[H, PH, I]) saveItems(t *memTx, hid id.ID, items []I) {
	prev, existed := b.items[hid]
	copies := make([]I, len(items))
	copy(copies, items)

	b.items[hid] = copies
	t.register(func() {
		if existed {
			b.items[hid] = prev
		} else {
			delete(b.items, hid)
		}
	})
}

func (b *orderBucket[H, PH, I]) getItems(hid id.ID) []I {
	items := b.items[hid]
	out := make([]I, len(items))
	copy(out, items)
	return out
}

// list returns pointers to copies of every header passing match, in
// unspecified order; callers sort.
func (b *orderBucket[H, PH, I]) list(match func(*H) bool) []*H {
	out := make([]*H, 0)
	for _, h := range b.byID {
		h := h
		if match(&h) {
			out = append(out, &h)
		}
	}
	return out
}
